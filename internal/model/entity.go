package model

import (
	"fmt"
	"strings"
)

type Item struct {
	ID   ItemID `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID    GroupID `json:"id"`
	Name  string  `json:"name"`
	Items []Item  `json:"items"`
}

func (it Item) Key() ItemID { return it.ID }

func (g Group) Key() GroupID { return g.ID }

// ItemLess orders items by name, then by id so equal names still sort deterministically.
func ItemLess(a, b Item) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}

// GroupLess applies the same total order as ItemLess to groups.
func GroupLess(a, b Group) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}

// Clone returns a deep copy; the items slice is never shared.
func (g Group) Clone() Group {
	out := g
	if g.Items != nil {
		out.Items = make([]Item, len(g.Items))
		copy(out.Items, g.Items)
	}
	return out
}

func DefaultGroupName(count int) string { return fmt.Sprintf("G%d", count+1) }

func DefaultItemName(count int) string { return fmt.Sprintf("I%d", count+1) }

// NormalizeName trims surrounding whitespace.
func NormalizeName(s string) string { return strings.TrimSpace(s) }
