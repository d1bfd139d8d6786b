package domain

import (
	"errors"
	"fmt"
)

// FaultKind categorizes failures seen while harvesting a page.
type FaultKind string

const (
	FaultPageUnavailable FaultKind = "page_unavailable"
	FaultExtraction      FaultKind = "extraction"
	FaultHandle          FaultKind = "handle"
	FaultConfiguration   FaultKind = "configuration"
)

// Fault is a classified error.
type Fault struct {
	Kind    FaultKind
	Message string
	Cause   error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// IsKind reports whether err carries a Fault of the given kind.
func IsKind(err error, kind FaultKind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

func NewPageUnavailable(message string, cause error) *Fault {
	return &Fault{Kind: FaultPageUnavailable, Message: message, Cause: cause}
}

func NewExtractionFault(message string, cause error) *Fault {
	return &Fault{Kind: FaultExtraction, Message: message, Cause: cause}
}

func NewHandleFault(message string, cause error) *Fault {
	return &Fault{Kind: FaultHandle, Message: message, Cause: cause}
}

func NewConfigurationError(cause error) *Fault {
	return &Fault{Kind: FaultConfiguration, Message: "invalid configuration", Cause: cause}
}

// ErrWaitTimeout is returned by Page.WaitFor when the element never appeared.
var ErrWaitTimeout = errors.New("wait timed out")
