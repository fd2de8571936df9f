// Package query describes read requests against named record collections
// and compiles them to parameterized SQL
package query

// Op is a filter operator
type Op string

const (
	// OpEq matches field = value
	OpEq Op = "eq"
	// OpIsNull matches field is null
	OpIsNull Op = "is_null"
	// OpNotNull matches field is not null
	OpNotNull Op = "not_null"
	// OpAfter matches rows strictly after value in the query's order direction
	// (> for ascending, < for descending); used for keyset pagination
	OpAfter Op = "after"
)

// Filter is one predicate; all filters of a Spec are ANDed
// Field is either a base column ("address") or relation qualified ("addr.view")
type Filter struct {
	Field string `validate:"required"`
	Op    Op     `validate:"required,oneof=eq is_null not_null after"`
	Value any
}

// Order is the single ordering key
type Order struct {
	Field string `validate:"required"`
	Desc  bool
}

// Spec is the request shape: collection, filters, ordering, limit and expansions
type Spec struct {
	Collection string   `validate:"required"`
	Filters    []Filter `validate:"dive"`
	Order      Order
	Limit      int      `validate:"gt=0"`
	Expand     []string `validate:"dive,required"`
}

// Eq builds an equality filter
func Eq(field string, v any) Filter { return Filter{Field: field, Op: OpEq, Value: v} }

// IsNull builds a null filter
func IsNull(field string) Filter { return Filter{Field: field, Op: OpIsNull} }

// NotNull builds a not-null filter
func NotNull(field string) Filter { return Filter{Field: field, Op: OpNotNull} }

// After builds a keyset filter
func After(field string, v any) Filter { return Filter{Field: field, Op: OpAfter, Value: v} }

// Asc orders by field ascending
func Asc(field string) Order { return Order{Field: field} }

// Desc orders by field descending
func Desc(field string) Order { return Order{Field: field, Desc: true} }
