package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// Prefijos de numeración secuencial por año.
const (
	RequestNumberKind = "INV"
	AuditNumberKind   = "AUD"
)

// NumberPrefix "INV-2026-".
func NumberPrefix(kind string, year int) string {
	return fmt.Sprintf("%s-%d-", kind, year)
}

// FormatNumber "INV-2026-00042".
func FormatNumber(kind string, year, seq int) string {
	return fmt.Sprintf("%s%05d", NumberPrefix(kind, year), seq)
}

// ParseNumberSuffix extrae la secuencia de un número con el prefijo dado.
func ParseNumberSuffix(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NumberLockKey clave del candado transaccional que serializa la numeración de un año.
func NumberLockKey(kind string, year int) string {
	return fmt.Sprintf("numbering:%s:%d", kind, year)
}
