package entity

// Roles válidos en el flujo de conteo.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator" // coordinador de inventarios
	RoleManager     = "manager"     // encargado de una ubicación (centro/tienda)
	RoleCounter     = "counter"     // contador asignado a ítems
	RoleAuditor     = "auditor"
)

// Actor identidad de quien invoca una operación (viene del JWT; el núcleo confía en ella).
type Actor struct {
	UserID       string
	Role         string
	LocationCode string // ubicación configurada del usuario; vacía para roles globales
}

// HasRole indica si el actor tiene alguno de los roles indicados.
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin atajo para el rol administrador.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
