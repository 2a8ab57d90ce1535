package config

import (
	"errors"
	"maps"
	"strings"

	"persistence/internal/pkg/errs"
	"persistence/internal/pkg/guard"
)

var ErrUnitIsNotConstructed = errors.New("Unit must be created via NewUnit constructor")

// Unit identifies a persistence unit and carries its optional property overrides.
type Unit struct {
	name       string
	properties map[string]string

	guard guard.ConstructorGuard
}

// NewUnit validates the unit name and snapshots the property bag.
// An empty (or blank) name fails with errs.ErrValueIsRequired.
func NewUnit(name string, properties map[string]string) (Unit, error) {
	if strings.TrimSpace(name) == "" {
		return Unit{}, errs.NewValueIsRequiredError("persistence unit name")
	}

	return Unit{
		name:       name,
		properties: maps.Clone(properties),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (u Unit) Validate() error {
	return u.guard.Validate(ErrUnitIsNotConstructed)
}

func (u Unit) Name() string {
	return u.name
}

// Properties returns a copy of the override bag; nil when none was given.
func (u Unit) Properties() map[string]string {
	return maps.Clone(u.properties)
}

func (u Unit) String() string {
	return u.name
}
