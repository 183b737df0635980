// Package auth identifies the operators allowed to change the inventory.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// Method names the way an operator proved their identity.
type Method string

const (
	// MethodNone indicates no authentication.
	MethodNone Method = "none"
	// MethodBasic indicates HTTP Basic authentication.
	MethodBasic Method = "basic"
	// MethodAPIKey indicates API key authentication.
	MethodAPIKey Method = "apikey"
	// MethodMulti indicates any of several methods.
	MethodMulti Method = "multi"
)

// Operator is an authenticated caller.
type Operator struct {
	Method Method
	Name   string
}

// Authenticator validates a request and returns the operator behind it.
type Authenticator interface {
	Authenticate(r *http.Request) (*Operator, error)
	Method() Method
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type contextKey string

const operatorKey contextKey = "operator"

// FromContext retrieves the operator stored by WithOperator.
func FromContext(ctx context.Context) (*Operator, bool) {
	op, ok := ctx.Value(operatorKey).(*Operator)
	return op, ok
}

// WithOperator stores op in the context.
func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}
