// Package query provides SQL query building utilities with projection mapping.
package query

import "strings"

// ProjectionMap maps view property names to qualified column references
// (alias.column) for a single aliased table.
type ProjectionMap struct {
	source  string
	alias   string
	lookup  map[string]string
	ordered []string
}

// NewProjectionMap creates a ProjectionMap over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		source: schema + "." + table,
		alias:  alias,
		lookup: make(map[string]string),
	}
}

// Project maps a database column to a view property name. Columns are
// selected in the order they are projected.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.lookup[viewName] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.source + " " + p.alias
}

// From returns the FROM target used by the builder.
func (p *ProjectionMap) From() string {
	return p.Table()
}

// Lookup returns the qualified column for a view property name.
func (p *ProjectionMap) Lookup(viewName string) (string, bool) {
	col, ok := p.lookup[viewName]
	return col, ok
}

// Column returns the qualified column for a view property name, or the input
// unchanged when it is not projected.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.Lookup(viewName); ok {
		return col
	}
	return viewName
}

// Columns returns all projected columns as a select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ordered, ", ")
}
