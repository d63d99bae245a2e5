package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/storefront-api/internal/guard"
	"github.com/hongminglow/storefront-api/internal/models/dto"
	"github.com/hongminglow/storefront-api/internal/query"
	"github.com/hongminglow/storefront-api/internal/storage"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and runs its validation tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest(msgInvalidJSON)
	}
	if msgs := dto.Validate(dst); len(msgs) > 0 {
		return badRequest(msgs...)
	}
	return nil
}

// pathID reads the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("id must be a positive integer")
	}
	return id, nil
}

// listParams reads page, limit, filter and sort from the query string.
func listParams(r *http.Request, filterFields, sortFields query.Fields) (storage.ListParams, error) {
	q := r.URL.Query()
	page, err := optionalPositive(q.Get("page"), "page")
	if err != nil {
		return storage.ListParams{}, err
	}
	limit, err := optionalPositive(q.Get("limit"), "limit")
	if err != nil {
		return storage.ListParams{}, err
	}
	filter, sort, err := query.Parse(q.Get("filter"), q.Get("sort"), filterFields, sortFields)
	if err != nil {
		return storage.ListParams{}, err
	}
	return storage.ListParams{Page: page, Limit: limit, Filter: filter, Sort: sort}.Normalize(), nil
}

func optionalPositive(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badRequest(name + " must be a positive integer")
	}
	return n, nil
}

// principal returns the authenticated caller. Guarded routes always have one.
func principal(r *http.Request) (guard.Principal, error) {
	p, ok := guard.PrincipalFrom(r.Context())
	if !ok {
		return guard.Principal{}, &guard.Denial{Reason: guard.ReasonUnauthorized, Message: "Unauthorized"}
	}
	return p, nil
}

// requireOwner rejects a create whose body names someone other than the caller.
func requireOwner(p guard.Principal, bodyUserID int64) error {
	if bodyUserID != p.UserID {
		return forbidden()
	}
	return nil
}

// existsFunc reports whether row id is owned by userID.
type existsFunc func(ctx context.Context, id, userID int64) (bool, error)

// ownedID resolves {id} and confirms that the row belongs to the caller.
// A missing row and someone else's row produce the same Forbidden error.
func ownedID(r *http.Request, exists existsFunc) (int64, error) {
	p, err := principal(r)
	if err != nil {
		return 0, err
	}
	id, err := pathID(r)
	if err != nil {
		return 0, err
	}
	ok, err := exists(r.Context(), id, p.UserID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, forbidden()
	}
	return id, nil
}
