package errors

import "fmt"

// DriverError is the error type every exported operation on a volume
// returns: a plain error plus the ability to layer on more context
// (WithMessage) or chain an underlying cause (WrapError) without losing
// either the original text or Unwrap support.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
}

// -----------------------------------------------------------------------------

// volumeFault is the concrete DriverError produced by BlockfsError's
// WithMessage/WrapError. Its name reflects what it always describes: a
// failure surfaced while operating on one volume's on-disk state.
type volumeFault struct {
	detail string
	cause  error
}

func (f volumeFault) Error() string {
	return f.detail
}

func (f volumeFault) WithMessage(message string) DriverError {
	return volumeFault{
		detail: fmt.Sprintf("%s: %s", f.detail, message),
		cause:  f,
	}
}

func (f volumeFault) WrapError(err error) DriverError {
	return volumeFault{
		detail: fmt.Sprintf("%s: %s", f.Error(), err.Error()),
		cause:  err,
	}
}

func (f volumeFault) Unwrap() error {
	return f.cause
}

// AsDriverError coerces any error produced while walking a volume's layers
// into a DriverError. Errors that already satisfy the interface (every
// BlockfsError sentinel, and anything built from one via WithMessage or
// WrapError) pass through unchanged; anything else -- in practice only
// errors escaping the standard library or a third-party dependency -- is
// folded under ErrIOFailed so callers never have to type-switch on what
// they get back.
func AsDriverError(err error) DriverError {
	if err == nil {
		return nil
	}
	if driverErr, ok := err.(DriverError); ok {
		return driverErr
	}
	return ErrIOFailed.WrapError(err)
}
