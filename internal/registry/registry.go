// Package registry holds the immutable allow-list of entities and columns that
// report configurations may reference. Every SQL identifier the report engine
// emits comes from here.
package registry

import (
	"fmt"
	"regexp"
	"sort"
)

// ColumnType drives value coercion for filters.
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeInteger  ColumnType = "integer"
	TypeDecimal  ColumnType = "decimal"
	TypeDate     ColumnType = "date"
	TypeDateTime ColumnType = "datetime"
	TypeBoolean  ColumnType = "boolean"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Column is one selectable field of an entity.
type Column struct {
	Name  string     `json:"name"`
	Label string     `json:"label"`
	Type  ColumnType `json:"type"`
}

// Entity describes one reportable table. Columns is the display allow-list;
// Keys are relationship columns usable in join conditions but never projected.
type Entity struct {
	Key     string
	Table   string
	Columns []Column
	Keys    []Column
}

// Column returns the allow-listed display column with the given name.
func (e Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// JoinColumn returns a column usable in a join condition: display columns or keys.
func (e Entity) JoinColumn(name string) (Column, bool) {
	if c, ok := e.Column(name); ok {
		return c, true
	}
	for _, c := range e.Keys {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Registry is safe for concurrent reads; it is never mutated after New.
type Registry struct {
	entities map[string]Entity
	keys     []string
}

// New validates and freezes the provided entities.
func New(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		if !identifierPattern.MatchString(e.Key) || !identifierPattern.MatchString(e.Table) {
			return nil, fmt.Errorf("invalid entity identifier %q/%q", e.Key, e.Table)
		}
		if _, dup := r.entities[e.Key]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Key)
		}
		if len(e.Columns) == 0 {
			return nil, fmt.Errorf("entity %q has no columns", e.Key)
		}
		seen := make(map[string]struct{}, len(e.Columns)+len(e.Keys))
		for _, c := range append(append([]Column(nil), e.Columns...), e.Keys...) {
			if !identifierPattern.MatchString(c.Name) {
				return nil, fmt.Errorf("invalid column identifier %q on %q", c.Name, e.Key)
			}
			if _, dup := seen[c.Name]; dup {
				return nil, fmt.Errorf("duplicate column %q on %q", c.Name, e.Key)
			}
			seen[c.Name] = struct{}{}
		}
		copied := e
		copied.Columns = append([]Column(nil), e.Columns...)
		copied.Keys = append([]Column(nil), e.Keys...)
		r.entities[e.Key] = copied
		r.keys = append(r.keys, e.Key)
	}
	sort.Strings(r.keys)
	return r, nil
}

// MustNew panics when the entities are invalid. Intended for static definitions.
func MustNew(entities ...Entity) *Registry {
	r, err := New(entities...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve looks up an entity by its model key.
func (r *Registry) Resolve(key string) (Entity, bool) {
	e, ok := r.entities[key]
	if !ok {
		return Entity{}, false
	}
	return e, true
}

// AllowedColumns maps column name to label. Unknown keys yield an empty map.
func (r *Registry) AllowedColumns(key string) map[string]string {
	out := map[string]string{}
	e, ok := r.entities[key]
	if !ok {
		return out
	}
	for _, c := range e.Columns {
		out[c.Name] = c.Label
	}
	return out
}

// Columns returns the display columns of an entity in declaration order.
func (r *Registry) Columns(key string) []Column {
	e, ok := r.entities[key]
	if !ok {
		return nil
	}
	return append([]Column(nil), e.Columns...)
}

// ModelKeys lists every registered model key, sorted.
func (r *Registry) ModelKeys() []string {
	return append([]string(nil), r.keys...)
}
