// Package auth holds the authenticated principal, the role policy table and
// the token and password primitives used by the request layer.
package auth

import (
	"errors"

	"github.com/Spok95/labsched/internal/domain/users"
)

// Principal is the caller of a service operation.
type Principal struct {
	UserID int64
	Role   users.Role
}

type Action int

const (
	CreateBooking Action = iota
	CancelOwnBooking
	ReviewBooking
	UndoStock
	ManageKits
	DeleteKit
	ManageMaterials
	ViewMaterials
	ManageUsers
	ViewAllBookings
	ListAllBookings
	ManageLabs
)

var policy = map[Action][]users.Role{
	CreateBooking:    {users.RoleProfessor},
	CancelOwnBooking: {users.RoleProfessor, users.RoleAdmin},
	ReviewBooking:    {users.RoleTechnician, users.RoleAdmin},
	UndoStock:        {users.RoleTechnician, users.RoleAdmin},
	ManageKits:       {users.RoleProfessor},
	DeleteKit:        {users.RoleProfessor, users.RoleAdmin},
	ManageMaterials:  {users.RoleTechnician, users.RoleAdmin},
	ViewMaterials:    {users.RoleProfessor, users.RoleTechnician, users.RoleAdmin},
	ManageUsers:      {users.RoleAdmin},
	ViewAllBookings:  {users.RoleTechnician, users.RoleAdmin},
	ListAllBookings:  {users.RoleAdmin},
	ManageLabs:       {users.RoleAdmin},
}

// Allowed reports whether role may perform a. Unknown actions are denied.
func Allowed(role users.Role, a Action) bool {
	for _, r := range policy[a] {
		if r == role {
			return true
		}
	}
	return false
}

var ErrUnauthenticated = errors.New("auth: unauthenticated")
