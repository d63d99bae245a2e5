package guard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/hongminglow/storefront-api/internal/models"
)

// OwnerKey is the body field compared against the principal by OwnershipGuard.
const OwnerKey = "userId"

// Authenticated rejects requests without a verified principal.
func Authenticated(p *Principal, _ Route, _ *Request) error {
	if p == nil {
		return deny(ReasonUnauthorized, "Unauthorized")
	}
	return nil
}

// RoleGuard allows when the route names no roles or the principal's role is one of them.
func RoleGuard(p *Principal, route Route, _ *Request) error {
	if len(route.RequiredRoles) == 0 {
		return nil
	}
	if p == nil || !slices.Contains(route.RequiredRoles, p.Role) {
		return deny(ReasonForbidden, "Forbidden resource")
	}
	return nil
}

// OwnershipGuard requires the body's userId to equal the principal's id on
// ownership-enforced routes. GET and DELETE carry no body and always pass.
func OwnershipGuard(p *Principal, route Route, req *Request) error {
	if !route.OwnershipEnforced {
		return nil
	}
	if req.Method == http.MethodGet || req.Method == http.MethodDelete {
		return nil
	}
	if p == nil {
		return deny(ReasonUnauthorized, "Unauthorized")
	}

	body := map[string]any{}
	if len(bytes.TrimSpace(req.Body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(req.Body))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return deny(ReasonBadRequest, "invalid request body")
		}
	}

	raw, ok := body[OwnerKey]
	if !ok {
		return deny(ReasonMissingOwnerKey, "The given resource doesn't have key: '"+OwnerKey+"'")
	}
	num, isNumber := raw.(json.Number)
	if !isNumber {
		return deny(ReasonOwnershipMismatch, "Forbidden Resource")
	}
	owner, ok := models.UserIDFromNumber(num)
	if !ok || owner != p.UserID {
		return deny(ReasonOwnershipMismatch, "Forbidden Resource")
	}
	return nil
}
