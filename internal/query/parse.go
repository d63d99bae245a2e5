package query

import (
	"fmt"
	"strings"
)

// Parse parses a filter and a sort expression against their allow-lists.
// Empty expressions yield empty results.
func Parse(filterExpr, sortExpr string, filterFields, sortFields Fields) (Filter, Sort, error) {
	filter, err := ParseFilter(filterExpr, filterFields)
	if err != nil {
		return nil, nil, err
	}
	sort, err := ParseSort(sortExpr, sortFields)
	if err != nil {
		return nil, nil, err
	}
	return filter, sort, nil
}

// ParseFilter parses "field1=value1,field2>=value2". A field given twice keeps the
// position of its first clause and the operator and value of its last.
func ParseFilter(expr string, allowed Fields) (Filter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	var filter Filter
	for _, raw := range strings.Split(expr, ",") {
		cond, err := parseClause(strings.TrimSpace(raw), allowed)
		if err != nil {
			return nil, err
		}
		filter.Set(cond)
	}
	return filter, nil
}

func parseClause(clause string, allowed Fields) (Condition, error) {
	if clause == "" {
		return Condition{}, fmt.Errorf("%w: empty filter clause", ErrInvalidQuerySyntax)
	}
	i := 0
	for i < len(clause) && isLetter(clause[i]) {
		i++
	}
	if i == 0 {
		return Condition{}, fmt.Errorf("%w: filter clause %q has no field", ErrInvalidQuerySyntax, clause)
	}
	j := i
	for j < len(clause) && isOperatorChar(clause[j]) {
		j++
	}
	if j == i {
		return Condition{}, fmt.Errorf("%w: filter clause %q has no operator", ErrInvalidQuerySyntax, clause)
	}
	field, symbol, value := clause[:i], clause[i:j], clause[j:]
	if value == "" {
		return Condition{}, fmt.Errorf("%w: filter clause %q has no value", ErrInvalidQuerySyntax, clause)
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return Condition{}, fmt.Errorf("%w: filter clause %q contains whitespace", ErrInvalidQuerySyntax, clause)
	}
	if !allowed.Has(field) {
		return Condition{}, fmt.Errorf("%w: %q cannot be filtered on", ErrUnknownField, field)
	}
	op, ok := ParseOperator(symbol)
	if !ok {
		return Condition{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuerySyntax, symbol)
	}
	return Condition{Field: field, Op: op, Value: value}, nil
}

// ParseSort parses "field1,-field2". The leading '-' is stripped before the
// allow-list lookup.
func ParseSort(expr string, allowed Fields) (Sort, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	var sort Sort
	for _, raw := range strings.Split(expr, ",") {
		token := strings.TrimSpace(raw)
		dir := Asc
		name := token
		if strings.HasPrefix(token, "-") {
			dir = Desc
			name = token[1:]
		}
		if name == "" || !isIdentifier(name) {
			return nil, fmt.Errorf("%w: invalid sort key %q", ErrInvalidQuerySyntax, token)
		}
		if !allowed.Has(name) {
			return nil, fmt.Errorf("%w: %q cannot be sorted on", ErrUnknownField, name)
		}
		sort.set(Order{Field: name, Dir: dir})
	}
	return sort, nil
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isOperatorChar(b byte) bool {
	return b == '<' || b == '>' || b == '=' || b == '!'
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			return false
		}
	}
	return true
}
