package graph

import "fmt"

// InvariantViolation means the graph itself is wrong: a relation names an
// unknown type, or cascades form a cycle. It is a programming error and is
// always reported before any row is touched.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "referential graph invariant violated: " + e.Reason
}

func violation(format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Reason: fmt.Sprintf(format, args...)}
}

// RestrictError is returned when a Restrict relation still has children.
type RestrictError struct {
	Relation Relation
	Count    int
}

func (e *RestrictError) Error() string {
	return fmt.Sprintf("%d %s row(s) still reference %s through %s", e.Count, e.Relation.Child, e.Relation.Parent, e.Relation.Column)
}
