//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package env

import (
	"errors"
	"fmt"
)

// Kind classifies session errors.
type Kind int

// Error kinds. All kinds except DomainWarning are fatal to the
// session.
const (
	ConfigurationError Kind = iota + 1
	ProtocolViolation
	TripleExhaustion
	LinkFailure
	DomainWarning
)

var kindNames = map[Kind]string{
	ConfigurationError: "configuration error",
	ProtocolViolation:  "protocol violation",
	TripleExhaustion:   "triple exhaustion",
	LinkFailure:        "link failure",
	DomainWarning:      "domain warning",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if ok {
		return name
	}
	return fmt.Sprintf("{Kind %d}", k)
}

// Sentinel errors for matching kinds with errors.Is.
var (
	ErrConfiguration = &Error{Kind: ConfigurationError}
	ErrProtocol      = &Error{Kind: ProtocolViolation}
	ErrExhausted     = &Error{Kind: TripleExhaustion}
	ErrLink          = &Error{Kind: LinkFailure}
	ErrDomain        = &Error{Kind: DomainWarning}
)

// Error implements a classified session error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if len(e.Op) == 0 {
		if e.Err == nil {
			return e.Kind.String()
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf creates a new error of the argument kind.
func Errorf(kind Kind, op, format string, a ...interface{}) error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  fmt.Errorf(format, a...),
	}
}

// Wrap wraps err into an error of the argument kind. Errors that
// already carry a kind are returned as-is.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// KindOf returns the kind of err or 0 if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsFatal tests if err aborts the session. Unclassified errors are
// fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) != DomainWarning
}
