package query

import (
	"fmt"
	"strings"
)

// Column is a selectable and filterable field of a table
type Column struct {
	Name string
	// Cast is applied on select only, e.g. "text" for numeric values scanned exactly
	Cast string
}

// Cols builds plain columns
func Cols(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n}
	}
	return out
}

// Cast builds a column selected as name::cast
func Cast(name, cast string) Column { return Column{Name: name, Cast: cast} }

// Relation is a to-one related table reachable from a collection
// Path is dotted ("tx", "tx.block"); the parent is the path minus its last segment
type Relation struct {
	Path string
	// Table is a table name or a parenthesized subquery
	Table string
	Alias string
	// On is the join condition written against the parent and own alias
	On      string
	Columns []Column
}

// Collection maps a logical collection onto a base table and its relations
type Collection struct {
	Name      string
	Table     string
	Alias     string
	Columns   []Column
	Relations []Relation
}

// Registry holds the collections a client may query; identifiers in compiled
// SQL come only from here
type Registry struct {
	byName map[string]*Collection
}

// NewRegistry indexes collections by name; it panics on duplicate names,
// duplicate relation paths or relations whose parent is missing
func NewRegistry(cs ...Collection) *Registry {
	r := &Registry{byName: make(map[string]*Collection, len(cs))}
	for i := range cs {
		c := cs[i]
		if _, dup := r.byName[c.Name]; dup {
			panic(fmt.Sprintf("query: duplicate collection %q", c.Name))
		}
		seen := map[string]bool{}
		for _, rel := range c.Relations {
			if seen[rel.Path] {
				panic(fmt.Sprintf("query: %s: duplicate relation %q", c.Name, rel.Path))
			}
			if p := parentPath(rel.Path); p != "" && !seen[p] {
				panic(fmt.Sprintf("query: %s: relation %q declared before its parent %q", c.Name, rel.Path, p))
			}
			seen[rel.Path] = true
		}
		r.byName[c.Name] = &c
	}
	return r
}

// Collection returns the named collection
func (r *Registry) Collection(name string) (*Collection, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.byName[name]
	return c, ok
}

// relation finds a relation by path
func (c *Collection) relation(path string) (*Relation, bool) {
	for i := range c.Relations {
		if c.Relations[i].Path == path {
			return &c.Relations[i], true
		}
	}
	return nil, false
}

func hasColumn(cols []Column, name string) bool {
	for _, col := range cols {
		if col.Name == name {
			return true
		}
	}
	return false
}

func parentPath(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return ""
}

// splitField separates "addr.view" into ("addr", "view"); a bare name has no path
func splitField(field string) (path, name string) {
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		return field[:i], field[i+1:]
	}
	return "", field
}
