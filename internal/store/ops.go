package store

import (
	"fmt"
	"strings"

	"groupsync/internal/model"
)

type OpKind int

const (
	OpCreateGroup OpKind = iota + 1
	OpUpdateGroup
	OpDeleteGroup
	OpCreateItem
	OpUpdateItem
	OpDeleteItem
)

var opKindNames = map[OpKind]string{
	OpCreateGroup: "createGroup",
	OpUpdateGroup: "updateGroup",
	OpDeleteGroup: "deleteGroup",
	OpCreateItem:  "createItem",
	OpUpdateItem:  "updateItem",
	OpDeleteItem:  "deleteItem",
}

func (k OpKind) String() string {
	if s, ok := opKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

func (k OpKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *OpKind) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for kind, name := range opKindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown op kind %q", s)
}

// Op is one persisted mutation. ItemID is zero for group-level ops; Name is
// empty for deletes.
type Op struct {
	Kind    OpKind        `json:"kind"`
	GroupID model.GroupID `json:"groupId"`
	ItemID  model.ItemID  `json:"itemId,omitzero"`
	Name    string        `json:"name,omitempty"`
}

func (o Op) IsItemOp() bool {
	return o.Kind == OpCreateItem || o.Kind == OpUpdateItem || o.Kind == OpDeleteItem
}

func (o Op) String() string {
	if o.IsItemOp() {
		return fmt.Sprintf("%s(%s/%s)", o.Kind, o.GroupID, o.ItemID)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.GroupID)
}

func CreateGroup(id model.GroupID, name string) Op {
	return Op{Kind: OpCreateGroup, GroupID: id, Name: name}
}

func UpdateGroup(id model.GroupID, name string) Op {
	return Op{Kind: OpUpdateGroup, GroupID: id, Name: name}
}

func DeleteGroup(id model.GroupID) Op { return Op{Kind: OpDeleteGroup, GroupID: id} }

func CreateItem(gid model.GroupID, id model.ItemID, name string) Op {
	return Op{Kind: OpCreateItem, GroupID: gid, ItemID: id, Name: name}
}

func UpdateItem(gid model.GroupID, id model.ItemID, name string) Op {
	return Op{Kind: OpUpdateItem, GroupID: gid, ItemID: id, Name: name}
}

func DeleteItem(gid model.GroupID, id model.ItemID) Op {
	return Op{Kind: OpDeleteItem, GroupID: gid, ItemID: id}
}
