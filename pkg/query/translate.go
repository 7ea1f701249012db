// Package query translates structured filter descriptions into Maximo's
// native OSLC filter dialect.
//
// The translator is schema-agnostic: field allowlisting happens in the tool
// layer before translation, so this package stays independently testable.
package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/assetbridge/maxgw/pkg/types"
)

// Clause is one structured filter term.
type Clause struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
}

// Order is one structured sort term.
type Order struct {
	Field string `json:"field"`
	Dir   string `json:"dir"` // "asc" or "desc"
}

// Ops accepted in a where clause.
const (
	OpEq      = "="
	OpNe      = "!="
	OpGt      = ">"
	OpGte     = ">="
	OpLt      = "<"
	OpLte     = "<="
	OpLike    = "like"
	OpIn      = "in"
	OpNull    = "null"
	OpNotNull = "notnull"
)

// Where renders clauses as a flat conjunction in input order, joined by
// " and ". No grouping or precedence is supported. Clauses with an empty
// field or op are skipped.
func Where(clauses []Clause) (string, error) {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		field := strings.TrimSpace(c.Field)
		op := strings.TrimSpace(c.Op)
		if field == "" || op == "" {
			continue
		}
		switch op {
		case OpNull:
			parts = append(parts, field+" is null")
		case OpNotNull:
			parts = append(parts, field+" is not null")
		case OpIn:
			vals, ok := c.Value.([]any)
			if !ok {
				return "", types.E(types.CodeInvalidIn, "in operator requires array", map[string]string{"field": field})
			}
			lits := make([]string, len(vals))
			for i, v := range vals {
				lits[i] = Literal(v)
			}
			parts = append(parts, fmt.Sprintf("%s in [%s]", field, strings.Join(lits, ",")))
		case OpLike:
			parts = append(parts, fmt.Sprintf("%s like %s", field, Literal(c.Value)))
		default:
			parts = append(parts, fmt.Sprintf("%s %s %s", field, op, Literal(c.Value)))
		}
	}
	return strings.Join(parts, " and "), nil
}

// OrderBy renders sort terms as "field dir" pairs joined by commas. An empty
// slice renders as the empty string.
func OrderBy(orders []Order) string {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		if o.Field == "" {
			continue
		}
		parts = append(parts, o.Field+" "+o.Dir)
	}
	return strings.Join(parts, ",")
}

// Literal renders one value in OSLC filter syntax: numbers and booleans as
// bare tokens, nil as the bare token null, everything else single-quoted
// with embedded quotes doubled.
func Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		s := strings.ReplaceAll(fmt.Sprintf("%v", val), "'", "''")
		return "'" + s + "'"
	}
}
