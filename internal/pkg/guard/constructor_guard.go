// Package guard detects values that bypassed their constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passes a nil error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in value objects that must only be created through
// their constructor. Its zero value fails validation, so a struct literal such as
// config.Unit{} is rejected wherever the object is consumed.
//
// Example:
//
//	var ErrUnitIsNotConstructed = errors.New("Unit must be created via NewUnit")
//
//	type Unit struct {
//	    name  string
//	    guard guard.ConstructorGuard
//	}
//
//	func (u Unit) Validate() error {
//	    return u.guard.Validate(ErrUnitIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard marks the enclosing object as properly constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard is a zero value, and nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
