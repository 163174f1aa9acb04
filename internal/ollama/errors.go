package ollama

import "fmt"

// Kind classifies a failed backend call. The relay maps each kind to a
// distinct user-facing message; none of them propagate as faults.
type Kind int

const (
	// KindTimeout means the backend did not respond within the deadline.
	KindTimeout Kind = iota + 1
	// KindTransport covers connection failures and non-2xx HTTP statuses.
	KindTransport
	// KindMalformed means the response body was not valid JSON.
	KindMalformed
	// KindUnexpectedShape means the JSON matched neither recognized shape.
	KindUnexpectedShape
	// KindIncompleteShape means a shape matched partially (JSON type mismatch).
	KindIncompleteShape
	// KindUnknown is the catch-all for anything else during dispatch or parse.
	KindUnknown
)

// String returns a stable identifier for the kind, used in logs and the
// usage log status column.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindUnexpectedShape:
		return "unexpected_shape"
	case KindIncompleteShape:
		return "incomplete_shape"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Error is the discriminated failure result of a backend call.
type Error struct {
	Kind   Kind
	Detail string // short, operator-oriented description
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ollama: %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("ollama: %s: %s", e.Kind, e.Detail)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}
