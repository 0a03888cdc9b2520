package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// ContractViolation reports a broken precondition: a dtype or shape mismatch, an
// out-of-range index or dimension, or a request for an unregistered device/dtype leaf.
// It signals a caller programming error and is raised with panic.
type ContractViolation struct {
	msg string
}

func (e *ContractViolation) Error() string {
	return "tensor: contract violation: " + e.msg
}

func violationf(format string, args ...any) error {
	return &ContractViolation{msg: fmt.Sprintf(format, args...)}
}

// Violate panics with a ContractViolation.
func Violate(format string, args ...any) {
	panic(violationf(format, args...))
}

// Expect panics with a ContractViolation when cond does not hold.
func Expect(cond bool, format string, args ...any) {
	if !cond {
		Violate(format, args...)
	}
}

// Fatal aborts on a backend failure. The error is logged and then raised with panic;
// numerics must never continue past a failed primitive or kernel.
func Fatal(err error, op string) {
	if err == nil {
		return
	}
	wrapped := errors.Wrap(err, op)
	log.WithError(errors.Cause(err)).WithField("op", op).Error("backend failure")
	panic(wrapped)
}

// IsContractViolation reports whether a recovered panic value is a ContractViolation.
func IsContractViolation(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var cv *ContractViolation
	return errors.As(err, &cv)
}
