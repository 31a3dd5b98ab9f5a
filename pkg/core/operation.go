package core

import (
	"fmt"
	"strings"
)

// Action is the kind of operation performed against records.
type Action int

const (
	// ActionCreate inserts new records.
	ActionCreate Action = iota
	// ActionRead selects records.
	ActionRead
	// ActionUpdate updates existing records by identifier.
	ActionUpdate
	// ActionDestroy deletes records by identifier.
	ActionDestroy
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionRead:
		return "read"
	case ActionUpdate:
		return "update"
	case ActionDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// ParseAction converts an action name into an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case "create":
		return ActionCreate, nil
	case "read":
		return ActionRead, nil
	case "update":
		return ActionUpdate, nil
	case "destroy", "delete", "erase":
		return ActionDestroy, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Normalize returns ASC or DESC; anything other than a case-insensitive
// "desc" sorts ascending.
func (d Direction) Normalize() Direction {
	if strings.EqualFold(string(d), string(Descending)) {
		return Descending
	}
	return Ascending
}

// Filter restricts a read to records whose property matches Value.
type Filter struct {
	Property string
	Value    any
	// AnyMatch selects substring matching instead of equality
	AnyMatch bool
}

// Sorter orders read results by a property.
type Sorter struct {
	Property  string
	Direction Direction
}

// Page restricts a read to a window of results.
type Page struct {
	Number int
	Start  int
	Limit  int
}

// Node is the tree node whose children are being read.
type Node struct {
	// ID of the parent node
	ID any
	// ParentIDProperty is the child property pointing at the parent; empty means "parentId"
	ParentIDProperty string
	// ChildType names the entity children are stored as; empty means the
	// bound model's child type, or the bound model itself when it has none
	ChildType string
}

// DefaultParentIDProperty is used when a node declares no parent-id property.
const DefaultParentIDProperty = "parentId"

// ParentProperty returns the parent-id property of the node.
func (n *Node) ParentProperty() string {
	if n.ParentIDProperty != "" {
		return n.ParentIDProperty
	}
	return DefaultParentIDProperty
}

// Operation is one request against the proxy.
type Operation struct {
	Action Action

	// Records targeted by a write, in order
	Records []*Record

	// ID looks up a single record on read
	ID      any
	Filters []Filter
	Sorters []Sorter
	Page    *Page
	Node    *Node
}

// IsRead reports whether the operation is a read.
func (o *Operation) IsRead() bool {
	return o.Action == ActionRead
}
