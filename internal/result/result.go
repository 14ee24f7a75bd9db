// Package result normalizes upstream calls into a three-way outcome.
package result

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-wanandroid/internal/model"
)

const unknownMessage = "unknown error"

type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindException
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindException:
		return "exception"
	default:
		return "invalid"
	}
}

// Outcome holds exactly one of a value, an application failure, or a
// transport exception. The zero Outcome is a success with the zero value.
type Outcome[T any] struct {
	kind  Kind
	data  T
	code  int
	msg   string
	cause error
}

func Success[T any](data T) Outcome[T] {
	return Outcome[T]{kind: KindSuccess, data: data}
}

func Failure[T any](code int, message string) Outcome[T] {
	return Outcome[T]{kind: KindFailure, code: code, msg: message}
}

func Exception[T any](cause error) Outcome[T] {
	if cause == nil {
		cause = errors.New(unknownMessage)
	}
	return Outcome[T]{kind: KindException, cause: cause}
}

// Call runs fn and folds its envelope and error into an Outcome.
func Call[T any](ctx context.Context, fn func(ctx context.Context) (model.Envelope[T], error)) Outcome[T] {
	env, err := fn(ctx)
	if err != nil {
		return Exception[T](err)
	}
	return FromEnvelope(env)
}

func FromEnvelope[T any](env model.Envelope[T]) Outcome[T] {
	if !env.OK() {
		return Failure[T](env.ErrorCode, env.ErrorMsg)
	}
	return Success(env.Data)
}

func (o Outcome[T]) Kind() Kind { return o.kind }
func (o Outcome[T]) IsSuccess() bool { return o.kind == KindSuccess }
func (o Outcome[T]) Data() T { return o.data }
func (o Outcome[T]) Code() int { return o.code }
func (o Outcome[T]) Cause() error { return o.cause }

// Get returns the value and whether the outcome is a success.
func (o Outcome[T]) Get() (T, bool) {
	return o.data, o.kind == KindSuccess
}

// Message collapses failures and exceptions into one user-facing string.
// It is empty for a success.
func (o Outcome[T]) Message() string {
	var msg string
	switch o.kind {
	case KindSuccess:
		return ""
	case KindFailure:
		msg = o.msg
	case KindException:
		if o.cause != nil {
			msg = o.cause.Error()
		}
	}
	if strings.TrimSpace(msg) == "" {
		return unknownMessage
	}
	return msg
}

// Err returns nil for a success and an *Error otherwise.
func (o Outcome[T]) Err() error {
	if o.kind == KindSuccess {
		return nil
	}
	return &Error{Kind: o.kind, Code: o.code, Message: o.Message(), Cause: o.cause}
}

// Map converts a successful value, passing failures through untouched.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	return Outcome[U]{kind: o.kind, code: o.code, msg: o.msg, cause: o.cause, data: mapIfSuccess(o, fn)}
}

func mapIfSuccess[T, U any](o Outcome[T], fn func(T) U) U {
	var zero U
	if o.kind != KindSuccess {
		return zero
	}
	return fn(o.data)
}

// Error is the error form of a non-successful Outcome.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Kind == KindFailure {
		return fmt.Sprintf("upstream failure %d: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// LoginExpired reports whether the upstream rejected the call for a missing session.
func (e *Error) LoginExpired() bool {
	return e.Kind == KindFailure && e.Code == model.CodeLoginExpired
}
