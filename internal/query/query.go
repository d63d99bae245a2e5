// Package query parses the flat filter and sort expressions accepted by list endpoints.
//
// A filter is a comma-separated list of clauses of the form <field><operator><value>,
// for example "price>=10,quantity<5". A sort is a comma-separated list of field names
// where a leading '-' selects descending order, for example "-price,title".
//
// Every referenced field must be present in the caller's allow-list. The parsed
// Filter and Sort are storage-agnostic; translating them into predicates is the
// job of the storage layer.
package query

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidQuerySyntax reports an expression that does not match the grammar.
	ErrInvalidQuerySyntax = errors.New("invalid query syntax")
	// ErrUnknownField reports a field that is not in the allow-list.
	ErrUnknownField = errors.New("unknown field")
)

// Operator is a comparison between a field and a literal value.
type Operator int

const (
	Eq Operator = iota + 1
	Ne
	Lt
	Lte
	Gt
	Gte
)

// operatorTokens is ordered so that two-character operators win over their prefixes.
var operatorTokens = []struct {
	token string
	op    Operator
}{
	{">=", Gte},
	{"<=", Lte},
	{"!=", Ne},
	{">", Gt},
	{"<", Lt},
	{"=", Eq},
}

// ParseOperator maps an operator symbol to its Operator.
func ParseOperator(s string) (Operator, bool) {
	for _, t := range operatorTokens {
		if t.token == s {
			return t.op, true
		}
	}
	return 0, false
}

func (o Operator) String() string {
	for _, t := range operatorTokens {
		if t.op == o {
			return t.token
		}
	}
	return "?"
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Fields is an allow-list of field names.
type Fields map[string]struct{}

// NewFields builds an allow-list from names.
func NewFields(names ...string) Fields {
	f := make(Fields, len(names))
	for _, n := range names {
		f[n] = struct{}{}
	}
	return f
}

// Has reports whether name is allowed.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Condition is a single filter clause.
type Condition struct {
	Field string
	Op    Operator
	Value string
}

// Filter is an ordered set of conditions, at most one per field.
type Filter []Condition

// Get returns the condition on field, if any.
func (f Filter) Get(field string) (Condition, bool) {
	for _, c := range f {
		if c.Field == field {
			return c, true
		}
	}
	return Condition{}, false
}

// Set adds c, replacing an existing condition on the same field in place.
func (f *Filter) Set(c Condition) {
	for i := range *f {
		if (*f)[i].Field == c.Field {
			(*f)[i] = c
			return
		}
	}
	*f = append(*f, c)
}

// Order is a single sort key.
type Order struct {
	Field string
	Dir   Direction
}

// Sort is an ordered list of sort keys, at most one per field.
type Sort []Order

func (s *Sort) set(o Order) {
	for i := range *s {
		if (*s)[i].Field == o.Field {
			(*s)[i] = o
			return
		}
	}
	*s = append(*s, o)
}

func (s Sort) String() string {
	parts := make([]string, 0, len(s))
	for _, o := range s {
		if o.Dir == Desc {
			parts = append(parts, "-"+o.Field)
		} else {
			parts = append(parts, o.Field)
		}
	}
	return strings.Join(parts, ",")
}
