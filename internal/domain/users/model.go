package users

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleProfessor  Role = "professor"
	RoleTechnician Role = "tecnico"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(strings.ToLower(s))); r {
	case RoleAdmin, RoleProfessor, RoleTechnician:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail lower-cases and trims an address the way logins compare it.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
