package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Wrap with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrTransport       = errors.New("partner unreachable")
	ErrPartnerRejected = errors.New("partner rejected")
	ErrResolution      = errors.New("unresolved reference")
	ErrConfiguration   = errors.New("partner integration not configured")

	// ErrNoDirectory means the partner exposes no hotel directory endpoint.
	ErrNoDirectory = errors.New("partner hotel directory not available")
)

// PartnerRejectedError carries the partner's structured business error.
type PartnerRejectedError struct {
	Code    int
	Message string
}

func (e *PartnerRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("partner rejected (error type %d)", e.Code)
	}
	return fmt.Sprintf("partner rejected (error type %d): %s", e.Code, e.Message)
}

func (e *PartnerRejectedError) Is(target error) bool { return target == ErrPartnerRejected }

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Resolutionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResolution, fmt.Sprintf(format, args...))
}

func Transportf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(format, args...))
}

// ErrorKind returns a short label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrPartnerRejected):
		return "partner_rejected"
	case errors.Is(err, ErrResolution):
		return "resolution"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}
