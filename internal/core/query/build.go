package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	perr "cardanoidx/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Build validates spec against reg and renders it as one select statement
// every failure is a query error raised before any I/O
//
//	select <base cols>, <expanded cols> from <table> <alias>
//	left join ... where <filters> order by <field> <dir> limit $n
func Build(reg *Registry, spec Spec) (string, []any, error) {
	if err := validate.Struct(spec); err != nil {
		return "", nil, specError(err)
	}
	c, ok := reg.Collection(spec.Collection)
	if !ok {
		return "", nil, perr.WithField(perr.Queryf("unknown collection %q", spec.Collection), "collection")
	}

	b := &builder{c: c, joined: map[string]bool{}}

	cols := make([]string, 0, len(c.Columns))
	for _, col := range c.Columns {
		cols = append(cols, selectExpr(c.Alias, col))
	}
	for _, path := range spec.Expand {
		rel, ok := c.relation(path)
		if !ok {
			return "", nil, perr.WithField(perr.Queryf("%s: unknown relation %q", c.Name, path), "expand")
		}
		b.join(path)
		for _, col := range rel.Columns {
			cols = append(cols, selectExpr(rel.Alias, col))
		}
	}

	var where []string
	for _, f := range spec.Filters {
		col, err := b.resolve(f.Field)
		if err != nil {
			return "", nil, err
		}
		switch f.Op {
		case OpEq:
			if f.Value == nil {
				return "", nil, perr.WithField(perr.Queryf("%s: eq filter on %q needs a value, use is_null", c.Name, f.Field), f.Field)
			}
			b.args = append(b.args, f.Value)
			where = append(where, col+" = $"+strconv.Itoa(len(b.args)))
		case OpIsNull:
			where = append(where, col+" is null")
		case OpNotNull:
			where = append(where, col+" is not null")
		case OpAfter:
			if f.Value == nil {
				return "", nil, perr.WithField(perr.Queryf("%s: after filter on %q needs a value", c.Name, f.Field), f.Field)
			}
			b.args = append(b.args, f.Value)
			cmp := " > $"
			if spec.Order.Desc {
				cmp = " < $"
			}
			where = append(where, col+cmp+strconv.Itoa(len(b.args)))
		}
	}

	orderCol, err := b.resolve(spec.Order.Field)
	if err != nil {
		return "", nil, err
	}
	dir := "asc"
	if spec.Order.Desc {
		dir = "desc"
	}

	var sb strings.Builder
	sb.WriteString("select ")
	sb.WriteString(strings.Join(cols, ", "))
	fmt.Fprintf(&sb, " from %s %s", c.Table, c.Alias)
	for _, path := range b.order {
		rel, _ := c.relation(path)
		fmt.Fprintf(&sb, " left join %s %s on %s", rel.Table, rel.Alias, rel.On)
	}
	if len(where) > 0 {
		sb.WriteString(" where ")
		sb.WriteString(strings.Join(where, " and "))
	}
	fmt.Fprintf(&sb, " order by %s %s", orderCol, dir)
	b.args = append(b.args, spec.Limit)
	sb.WriteString(" limit $" + strconv.Itoa(len(b.args)))

	return sb.String(), b.args, nil
}

// builder tracks joins in dependency order and bound args
type builder struct {
	c      *Collection
	joined map[string]bool
	order  []string
	args   []any
}

// join adds path and its parents once, parents first
func (b *builder) join(path string) {
	if b.joined[path] {
		return
	}
	if p := parentPath(path); p != "" {
		b.join(p)
	}
	b.joined[path] = true
	b.order = append(b.order, path)
}

// resolve turns a field reference into alias.column, joining relations as needed
func (b *builder) resolve(field string) (string, error) {
	path, name := splitField(field)
	if path == "" {
		if !hasColumn(b.c.Columns, name) {
			return "", perr.WithField(perr.Queryf("%s: unknown field %q", b.c.Name, field), field)
		}
		return b.c.Alias + "." + name, nil
	}
	rel, ok := b.c.relation(path)
	if !ok {
		return "", perr.WithField(perr.Queryf("%s: unknown relation %q in field %q", b.c.Name, path, field), field)
	}
	if !hasColumn(rel.Columns, name) {
		return "", perr.WithField(perr.Queryf("%s: unknown field %q", b.c.Name, field), field)
	}
	b.join(path)
	return rel.Alias + "." + name, nil
}

func selectExpr(alias string, col Column) string {
	if col.Cast != "" {
		return alias + "." + col.Name + "::" + col.Cast
	}
	return alias + "." + col.Name
}

// specError maps validator output onto a query error naming the first bad field
func specError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return perr.WithField(perr.Queryf("invalid query spec: %s failed %q", fe.Namespace(), fe.Tag()), fe.Field())
	}
	return perr.Wrap(err, perr.ErrorCodeQuery, "invalid query spec")
}
