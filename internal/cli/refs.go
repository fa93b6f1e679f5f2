package cli

import (
	"strings"

	"groupsync/internal/model"
)

// resolveGroup accepts a group id or an exact, unique group name.
func resolveGroup(groups []model.Group, ref string) (model.Group, error) {
	ref = strings.TrimSpace(ref)
	if id, err := model.ParseGroupID(ref); err == nil {
		for _, g := range groups {
			if g.ID == id {
				return g, nil
			}
		}
		return model.Group{}, notFoundError{kind: "group", ref: ref}
	}
	var matches []model.Group
	for _, g := range groups {
		if g.Name == ref {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return model.Group{}, notFoundError{kind: "group", ref: ref}
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, g := range matches {
		ids[i] = g.ID.String()
	}
	return model.Group{}, ambiguousError{kind: "group", ref: ref, matches: ids}
}

// resolveItem is resolveGroup for the items of g.
func resolveItem(g model.Group, ref string) (model.Item, error) {
	ref = strings.TrimSpace(ref)
	if id, err := model.ParseItemID(ref); err == nil {
		for _, it := range g.Items {
			if it.ID == id {
				return it, nil
			}
		}
		return model.Item{}, notFoundError{kind: "item", ref: ref}
	}
	var matches []model.Item
	for _, it := range g.Items {
		if it.Name == ref {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return model.Item{}, notFoundError{kind: "item", ref: ref}
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, it := range matches {
		ids[i] = it.ID.String()
	}
	return model.Item{}, ambiguousError{kind: "item", ref: ref, matches: ids}
}
