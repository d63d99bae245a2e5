package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/storefront-api/internal/query"
)

// kind decides how a filter literal is converted before it is bound.
type kind int

const (
	kindInt kind = iota
	kindFloat
	kindBool
	kindText
	kindTime
)

func (k kind) String() string {
	switch k {
	case kindInt:
		return "integer"
	case kindFloat:
		return "number"
	case kindBool:
		return "boolean"
	case kindTime:
		return "timestamp"
	default:
		return "text"
	}
}

// convert parses raw according to k.
func (k kind) convert(raw string) (any, error) {
	switch k {
	case kindInt:
		return strconv.ParseInt(raw, 10, 64)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindBool:
		return strconv.ParseBool(raw)
	case kindTime:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("unrecognised timestamp layout")
	default:
		return raw, nil
	}
}

type column struct {
	name string
	kind kind
}

// table maps API field names onto SQL columns. Only identifiers from this
// map are ever interpolated into SQL; every value is a bound parameter.
type table struct {
	name       string
	selectList string
	columns    map[string]column
}

var sqlOperators = map[query.Operator]string{
	query.Eq:  "=",
	query.Ne:  "<>",
	query.Lt:  "<",
	query.Lte: "<=",
	query.Gt:  ">",
	query.Gte: ">=",
}

// where renders filter as a WHERE clause with $1..$n placeholders.
func (t table) where(filter query.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	for _, c := range filter {
		col, ok := t.columns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", query.ErrUnknownField, c.Field)
		}
		op, ok := sqlOperators[c.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: operator %s", query.ErrInvalidQuerySyntax, c.Op)
		}
		v, err := col.kind.convert(c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s expects a %s, got %q", query.ErrInvalidQuerySyntax, c.Field, col.kind, c.Value)
		}
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", col.name, op, len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// orderBy renders sort as an ORDER BY clause. id is appended as a final
// tie-breaker so pages are stable.
func (t table) orderBy(sort query.Sort) (string, error) {
	parts := make([]string, 0, len(sort)+1)
	hasID := false
	for _, o := range sort {
		col, ok := t.columns[o.Field]
		if !ok {
			return "", fmt.Errorf("%w: %s", query.ErrUnknownField, o.Field)
		}
		dir := "ASC"
		if o.Dir == query.Desc {
			dir = "DESC"
		}
		if col.name == "id" {
			hasID = true
		}
		parts = append(parts, col.name+" "+dir)
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

var (
	usersTable = table{
		name:       "users",
		selectList: "id, first_name, last_name, email, password_hash, role, created_at",
		columns: map[string]column{
			"id":        {"id", kindInt},
			"email":     {"email", kindText},
			"firstName": {"first_name", kindText},
			"lastName":  {"last_name", kindText},
			"role":      {"role", kindText},
			"createdAt": {"created_at", kindTime},
		},
	}

	categoriesTable = table{
		name:       "categories",
		selectList: "id, user_id, title, created_at, updated_at",
		columns: map[string]column{
			"id":        {"id", kindInt},
			"userId":    {"user_id", kindInt},
			"title":     {"title", kindText},
			"createdAt": {"created_at", kindTime},
			"updatedAt": {"updated_at", kindTime},
		},
	}

	productsTable = table{
		name:       "products",
		selectList: "id, user_id, category_id, title, image, description, price, quantity, created_at, updated_at",
		columns: map[string]column{
			"id":         {"id", kindInt},
			"userId":     {"user_id", kindInt},
			"categoryId": {"category_id", kindInt},
			"title":      {"title", kindText},
			"price":      {"price", kindFloat},
			"quantity":   {"quantity", kindInt},
			"createdAt":  {"created_at", kindTime},
			"updatedAt":  {"updated_at", kindTime},
		},
	}

	ordersTable = table{
		name:       "orders",
		selectList: "id, user_id, product_id, quantity, paid, created_at, updated_at",
		columns: map[string]column{
			"id":        {"id", kindInt},
			"userId":    {"user_id", kindInt},
			"productId": {"product_id", kindInt},
			"quantity":  {"quantity", kindInt},
			"paid":      {"paid", kindBool},
			"createdAt": {"created_at", kindTime},
			"updatedAt": {"updated_at", kindTime},
		},
	}
)
