package model

import (
	"fmt"

	"github.com/google/uuid"
)

// GroupID identifies a Group. It is never reused, even after deletion.
type GroupID uuid.UUID

// ItemID identifies an Item within its owning group.
type ItemID uuid.UUID

func NewGroupID() GroupID { return GroupID(uuid.New()) }

func NewItemID() ItemID { return ItemID(uuid.New()) }

func (id GroupID) String() string { return uuid.UUID(id).String() }

func (id ItemID) String() string { return uuid.UUID(id).String() }

func (id GroupID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

func (id ItemID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

func ParseGroupID(s string) (GroupID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GroupID{}, fmt.Errorf("parse group id %q: %w", s, err)
	}
	return GroupID(u), nil
}

func ParseItemID(s string) (ItemID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ItemID{}, fmt.Errorf("parse item id %q: %w", s, err)
	}
	return ItemID(u), nil
}

func (id GroupID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *GroupID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id ItemID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ItemID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
