package materials

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitG   Unit = "g"
	UnitMg  Unit = "mg"
	UnitKg  Unit = "kg"
	UnitMl  Unit = "ml"
	UnitL   Unit = "L"
	UnitPcs Unit = "un"
)

func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.TrimSpace(s)); u {
	case UnitG, UnitMg, UnitKg, UnitMl, UnitL, UnitPcs:
		return u, nil
	case "l":
		return UnitL, nil
	default:
		return "", fmt.Errorf("unknown unit %q", s)
	}
}

// Class decides whether the ledger tracks consumption of a material.
type Class string

const (
	ClassConsumable Class = "consumivel"
	ClassTool       Class = "ferramenta"
)

func ParseClass(s string) (Class, error) {
	switch c := Class(strings.TrimSpace(strings.ToLower(s))); c {
	case ClassConsumable, ClassTool:
		return c, nil
	default:
		return "", fmt.Errorf("unknown material class %q", s)
	}
}

// Form is how a material is requested: as solid units or as a solution
// whose real consumption is the weight used to prepare it.
type Form string

const (
	FormSolid    Form = "solido"
	FormSolution Form = "solucao"
)

// ParseForm treats an empty value as FormSolid.
func ParseForm(s string) (Form, error) {
	switch f := Form(strings.TrimSpace(strings.ToLower(s))); f {
	case "":
		return FormSolid, nil
	case FormSolid, FormSolution:
		return f, nil
	default:
		return "", fmt.Errorf("unknown physical form %q", s)
	}
}

type Status string

const StatusAvailable Status = "disponivel"

type Material struct {
	ID          int64
	Name        string
	Description string
	Location    string
	Category    string // reagente, vidraria, equipamento, ...
	Class       Class
	Quantity    decimal.Decimal
	Unit        Unit
	Status      Status
	CreatedAt   time.Time
}

func (m Material) Consumable() bool { return m.Class == ClassConsumable }

var (
	lowStockGrams = decimal.NewFromInt(20)
	lowStockUnits = decimal.NewFromInt(1)
)

// LowStock reports whether the on-hand quantity is at or below the alert level
// for its unit. Tools are never reported.
func (m Material) LowStock() bool {
	if !m.Consumable() {
		return false
	}
	switch m.Unit {
	case UnitG, UnitMl:
		return m.Quantity.LessThanOrEqual(lowStockGrams)
	default:
		return m.Quantity.LessThanOrEqual(lowStockUnits)
	}
}
