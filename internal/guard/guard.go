// Package guard evaluates per-route authorization before a handler runs.
//
// A Chain is an ordered list of Guards. The first guard that returns an error
// stops evaluation and that error, normally a *Denial, is reported to the client.
package guard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hongminglow/storefront-api/internal/models"
)

// Principal is the identity established from a verified bearer token.
type Principal struct {
	UserID int64
	Role   models.Role
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Route is the authorization metadata attached to a route when it is registered.
type Route struct {
	RequiredRoles     []models.Role
	OwnershipEnforced bool
}

// Merge combines controller-level and handler-level metadata. Handler roles
// replace controller roles whenever the handler sets them, even to an empty list.
func Merge(controller, handler Route) Route {
	out := controller
	if handler.RequiredRoles != nil {
		out.RequiredRoles = handler.RequiredRoles
	}
	out.OwnershipEnforced = controller.OwnershipEnforced || handler.OwnershipEnforced
	return out
}

// Request is the part of an HTTP request the guards look at.
type Request struct {
	Method string
	Body   []byte
}

// Guard inspects a request. p is nil when no verified token was presented.
type Guard func(p *Principal, route Route, req *Request) error

// Chain runs guards in order.
type Chain []Guard

// Evaluate returns the first guard error, or nil when every guard allows.
func (c Chain) Evaluate(p *Principal, route Route, req *Request) error {
	for _, g := range c {
		if err := g(p, route, req); err != nil {
			return err
		}
	}
	return nil
}

// Default is authentication, then role membership, then body ownership.
func Default() Chain {
	return Chain{Authenticated, RoleGuard, OwnershipGuard}
}

// Reason is a machine-readable denial code.
type Reason string

const (
	ReasonUnauthorized      Reason = "UNAUTHORIZED"
	ReasonForbidden         Reason = "FORBIDDEN"
	ReasonMissingOwnerKey   Reason = "MISSING_OWNER_KEY"
	ReasonOwnershipMismatch Reason = "OWNERSHIP_MISMATCH"
	ReasonBadRequest        Reason = "BAD_REQUEST"
)

// Denial is returned by a guard that rejects the request.
type Denial struct {
	Reason  Reason
	Message string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("%s: %s", d.Reason, d.Message)
}

// Status maps the denial reason to an HTTP status code.
func (d *Denial) Status() int {
	switch d.Reason {
	case ReasonUnauthorized:
		return http.StatusUnauthorized
	case ReasonMissingOwnerKey, ReasonBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusForbidden
	}
}

func deny(reason Reason, msg string) *Denial {
	return &Denial{Reason: reason, Message: msg}
}
