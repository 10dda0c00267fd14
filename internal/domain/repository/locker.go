package repository

import "context"

// Locker candado atado a la transacción en curso (se libera con commit/rollback).
type Locker interface {
	Lock(ctx context.Context, key string) error
}
