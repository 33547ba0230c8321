package logging

import (
	"fmt"
	"runtime/debug"
)

// RecoveryHandler turns panics inside a component into logged errors so a
// bad response cannot take down the whole UI.
type RecoveryHandler struct {
	Component string
	// OnPanic, when set, is called after the panic is logged.
	OnPanic func(rec interface{}, stack string)
}

// NewRecoveryHandler creates a recovery handler for a component
func NewRecoveryHandler(component string) *RecoveryHandler {
	return &RecoveryHandler{Component: component}
}

// Wrap runs fn and swallows any panic after logging it.
func (r *RecoveryHandler) Wrap(fn func()) {
	_ = r.WrapError(func() error {
		fn()
		return nil
	})
}

// WrapError runs fn and converts a panic into an error.
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.recovered(rec, string(debug.Stack()))
		}
	}()
	return fn()
}

func (r *RecoveryHandler) recovered(rec interface{}, stack string) error {
	err := fmt.Errorf("panic in %s: %v", r.Component, rec)
	New(r.Component).Error("panic_recovered", map[string]interface{}{"stack": stack}, err)
	if r.OnPanic != nil {
		r.OnPanic(rec, stack)
	}
	return err
}
