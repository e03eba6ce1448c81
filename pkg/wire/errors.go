package wire

import "fmt"

// Sentinel error categories. Concrete error values returned by this
// package and by pkg/brlapi wrap one of these, so callers can use
// errors.Is without caring about the specific code or message.
var (
	ErrTransport     = fmt.Errorf("brlapi: transport error")
	ErrFraming       = fmt.Errorf("brlapi: framing error")
	ErrProtocol      = fmt.Errorf("brlapi: protocol error")
	ErrMode          = fmt.Errorf("brlapi: mode error")
	ErrTimeout       = fmt.Errorf("brlapi: timeout")
	ErrAuthentication = fmt.Errorf("brlapi: authentication error")
	ErrClosed        = fmt.Errorf("brlapi: connection closed")
)

// TransportError wraps a failure to open, read from, or write to the
// underlying socket.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("brlapi: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return ErrTransport }

// FramingError reports an oversized or malformed frame.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string { return "brlapi: framing error: " + e.Reason }

func (e *FramingError) Unwrap() error { return ErrFraming }

// ProtocolError wraps an ERROR or EXCEPTION packet returned by BRLTTY.
type ProtocolError struct {
	Code        ErrorCode
	PacketType  Type
	Packet      []byte
}

func (e *ProtocolError) Error() string {
	if e.PacketType != 0 {
		return fmt.Sprintf("brlapi: protocol error %d (%s) on packet %s", e.Code, e.Code.Description(), e.PacketType)
	}
	return fmt.Sprintf("brlapi: protocol error %d (%s)", e.Code, e.Code.Description())
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// ModeError reports that an operation was invoked while the client was in
// a mode that forbids it.
type ModeError struct {
	Op       string
	Mode     string
	Required string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("brlapi: %s requires mode %s, got %s", e.Op, e.Required, e.Mode)
}

func (e *ModeError) Unwrap() error { return ErrMode }

// TimeoutError reports that a gate's deadline elapsed before completion.
type TimeoutError struct {
	Gate string
}

func (e *TimeoutError) Error() string { return "brlapi: timed out waiting on " + e.Gate }

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// AuthenticationError reports a refused or unsupported authentication
// method.
type AuthenticationError struct {
	Method AuthMethod
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("brlapi: authentication with method %s failed: %s", e.Method, e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// ClosedError is returned by any operation attempted after the client has
// been closed, or injected into every pending gate when close happens.
type ClosedError struct {
	Reason string
}

func (e *ClosedError) Error() string {
	if e.Reason == "" {
		return "brlapi: connection closed"
	}
	return "brlapi: connection closed: " + e.Reason
}

func (e *ClosedError) Unwrap() error { return ErrClosed }

// MultipleErrors is a composite error raised when more than one error
// accumulates on a gate before it is drained. It flattens nested
// MultipleErrors the way the original implementation's
// MultipleExceptions does.
type MultipleErrors struct {
	Errors []error
}

func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	s := fmt.Sprintf("brlapi: %d errors occurred:", len(e.Errors))
	for _, err := range e.Errors {
		s += "\n\t- " + err.Error()
	}
	return s
}

// Unwrap exposes the wrapped errors to errors.Is/errors.As (Go 1.20+
// multi-error unwrapping).
func (e *MultipleErrors) Unwrap() []error { return e.Errors }

// AppendError adds err to a MultipleErrors, flattening nested
// MultipleErrors rather than nesting them.
func AppendError(existing error, err error) error {
	if existing == nil {
		return err
	}
	var me *MultipleErrors
	if m, ok := existing.(*MultipleErrors); ok {
		me = m
	} else {
		me = &MultipleErrors{Errors: []error{existing}}
	}
	if nested, ok := err.(*MultipleErrors); ok {
		me.Errors = append(me.Errors, nested.Errors...)
	} else {
		me.Errors = append(me.Errors, err)
	}
	return me
}
