// Package graph declares which rows depend on which, and what happens to a
// dependent row when the row it points at is deleted.
//
// The store's own foreign keys are declared RESTRICT, so this package is
// the single place where deletion semantics live. The cascade engine walks
// a Graph to find everything a delete must touch and in which order.
package graph

import (
	"fmt"
	"strings"
)

type EntityType string

// Policy says what happens to a child row when its parent is deleted.
type Policy int

const (
	// Cascade deletes the child together with the parent.
	Cascade Policy = iota
	// Nullify clears the child's reference column and keeps the row.
	Nullify
	// Restrict refuses to delete the parent while children exist.
	Restrict
)

func (p Policy) String() string {
	switch p {
	case Cascade:
		return "cascade"
	case Nullify:
		return "nullify"
	case Restrict:
		return "restrict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Entity maps an entity type onto its table. Link tables (many-to-many join
// rows) have no primary key of their own and are addressed by the foreign
// key that points at the parent being deleted.
type Entity struct {
	Type       EntityType
	Table      string
	PrimaryKey string
}

func (e Entity) IsLink() bool {
	return e.PrimaryKey == ""
}

// Relation is a foreign key Column on Child's table referencing Parent.
// Weak relations are lookup references: the child is removed with the
// parent but never expanded further and never blocks the delete.
type Relation struct {
	Parent EntityType
	Child  EntityType
	Column string
	Policy Policy
	Weak   bool
}

func (r Relation) SelfReferencing() bool {
	return r.Parent == r.Child
}

func (r Relation) String() string {
	return fmt.Sprintf("%s -> %s.%s (%s)", r.Parent, r.Child, r.Column, r.Policy)
}

type Graph struct {
	entities  map[EntityType]Entity
	order     []EntityType
	relations []Relation
	byParent  map[EntityType][]Relation
}

func New() *Graph {
	return &Graph{
		entities: make(map[EntityType]Entity),
		byParent: make(map[EntityType][]Relation),
	}
}

func (g *Graph) Register(e Entity) *Graph {
	if _, exists := g.entities[e.Type]; !exists {
		g.order = append(g.order, e.Type)
	}
	g.entities[e.Type] = e
	return g
}

func (g *Graph) Relate(r Relation) *Graph {
	g.relations = append(g.relations, r)
	g.byParent[r.Parent] = append(g.byParent[r.Parent], r)
	return g
}

func (g *Graph) Entity(t EntityType) (Entity, bool) {
	e, ok := g.entities[t]
	return e, ok
}

// Entities returns the registered entities in registration order.
func (g *Graph) Entities() []Entity {
	out := make([]Entity, 0, len(g.order))
	for _, t := range g.order {
		out = append(out, g.entities[t])
	}
	return out
}

// Relations returns the relations whose parent is t, in declaration order.
func (g *Graph) Relations(t EntityType) []Relation {
	return g.byParent[t]
}

// SelfReferences returns the relations of t that point back at t.
func (g *Graph) SelfReferences(t EntityType) []Relation {
	var out []Relation
	for _, r := range g.byParent[t] {
		if r.SelfReferencing() {
			out = append(out, r)
		}
	}
	return out
}

// Validate reports relationships the engine could not act on. It is cheap
// and runs before every closure computation.
func (g *Graph) Validate() error {
	for _, r := range g.relations {
		if _, ok := g.entities[r.Parent]; !ok {
			return violation("relation %s: unknown parent type %q", r, r.Parent)
		}

		child, ok := g.entities[r.Child]
		if !ok {
			return violation("relation %s: unknown child type %q", r, r.Child)
		}

		if strings.TrimSpace(r.Column) == "" {
			return violation("relation %s: empty foreign key column", r)
		}

		if child.IsLink() && r.Policy != Cascade {
			return violation("relation %s: link rows can only cascade", r)
		}

		if r.Weak && r.Policy == Restrict {
			return violation("relation %s: weak references cannot restrict", r)
		}
	}

	_, err := g.DeletionOrder()
	return err
}

// DeletionOrder lists entity types so that every type comes before the
// types its rows reference through cascading relations. Self references
// are ignored here; the engine clears them before deleting anything.
func (g *Graph) DeletionOrder() ([]EntityType, error) {
	indegree := make(map[EntityType]int, len(g.order))
	for _, t := range g.order {
		indegree[t] = 0
	}

	edges := make(map[EntityType][]EntityType)
	for _, r := range g.relations {
		if r.Policy != Cascade || r.SelfReferencing() {
			continue
		}
		edges[r.Parent] = append(edges[r.Parent], r.Child)
		indegree[r.Child]++
	}

	queue := make([]EntityType, 0, len(g.order))
	for _, t := range g.order {
		if indegree[t] == 0 {
			queue = append(queue, t)
		}
	}

	parentsFirst := make([]EntityType, 0, len(g.order))
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		parentsFirst = append(parentsFirst, t)

		for _, child := range edges[t] {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(parentsFirst) != len(g.order) {
		var stuck []string
		for _, t := range g.order {
			if indegree[t] > 0 {
				stuck = append(stuck, string(t))
			}
		}
		return nil, violation("cascade cycle between entity types: %s", strings.Join(stuck, ", "))
	}

	out := make([]EntityType, len(parentsFirst))
	for i, t := range parentsFirst {
		out[len(parentsFirst)-1-i] = t
	}

	return out, nil
}
