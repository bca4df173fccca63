package collection

import (
	"fmt"
	"strings"
)

// Action is the kind of a Change
type Action uint8

const (
	ActionAdd     Action = iota // items were added at NewIndex (or appended if -1)
	ActionRemove                // items were removed from OldIndex
	ActionReplace               // OldItems were replaced by NewItems at NewIndex
	ActionMove                  // an item moved from OldIndex to NewIndex
	ActionReset                 // anything may have changed, re-read the list
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionMove:
		return "move"
	case ActionReset:
		return "reset"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// MarshalText encodes the action by name for JSON and YAML output
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses an action name
func (a *Action) UnmarshalText(text []byte) error {
	for _, candidate := range []Action{ActionAdd, ActionRemove, ActionReplace, ActionMove, ActionReset} {
		if strings.EqualFold(candidate.String(), string(text)) {
			*a = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown action: %s", text)
}

// Change describes one applied mutation.
// Indices are -1 when they do not apply.
type Change[T any] struct {
	Action   Action `json:"action" yaml:"action"`
	NewItems []T    `json:"new_items,omitempty" yaml:"new_items,omitempty"`
	OldItems []T    `json:"old_items,omitempty" yaml:"old_items,omitempty"`
	NewIndex int    `json:"new_index" yaml:"new_index"`
	OldIndex int    `json:"old_index" yaml:"old_index"`
}

func (c Change[T]) String() string {
	switch c.Action {
	case ActionAdd:
		return fmt.Sprintf("add %v at %d", c.NewItems, c.NewIndex)
	case ActionRemove:
		return fmt.Sprintf("remove %v at %d", c.OldItems, c.OldIndex)
	case ActionReplace:
		return fmt.Sprintf("replace %v with %v at %d", c.OldItems, c.NewItems, c.NewIndex)
	case ActionMove:
		return fmt.Sprintf("move %v from %d to %d", c.NewItems, c.OldIndex, c.NewIndex)
	default:
		return c.Action.String()
	}
}

func addChange[T any](item T) Change[T] {
	return Change[T]{Action: ActionAdd, NewItems: []T{item}, NewIndex: -1, OldIndex: -1}
}

func insertChange[T any](item T, index int) Change[T] {
	return Change[T]{Action: ActionAdd, NewItems: []T{item}, NewIndex: index, OldIndex: -1}
}

func removeChange[T any](item T, index int) Change[T] {
	return Change[T]{Action: ActionRemove, OldItems: []T{item}, NewIndex: -1, OldIndex: index}
}

func replaceChange[T any](newItem, oldItem T, index int) Change[T] {
	return Change[T]{Action: ActionReplace, NewItems: []T{newItem}, OldItems: []T{oldItem}, NewIndex: index, OldIndex: index}
}

func moveChange[T any](item T, newIndex, oldIndex int) Change[T] {
	return Change[T]{Action: ActionMove, NewItems: []T{item}, OldItems: []T{item}, NewIndex: newIndex, OldIndex: oldIndex}
}

func resetChange[T any]() Change[T] {
	return Change[T]{Action: ActionReset, NewIndex: -1, OldIndex: -1}
}

// --------------------------------------------------------------------------
// Attributes
// --------------------------------------------------------------------------

// Attribute names a derived property of a list that attribute listeners are told about
type Attribute string

const (
	AttrCount    Attribute = "Count"
	AttrHasItems Attribute = "HasItems"
)
