package models

import (
	"reflect"
	"strconv"
)

// BlockParticipant is one participant currently assigned to a block. Label is
// whatever identifying attribute the organizer configured (email, name or an
// anonymized placeholder) -- the backend resolves that, the client only
// displays it.
type BlockParticipant struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// BlockMeta holds the aggregate the occupancy display is built from.
type BlockMeta struct {
	ParticipantsInBlockCount int `json:"participantsInBlockCount"`
}

// PublicBlock is a capacity-constrained allocation unit (seat, room, slot)
// belonging to one block-typed attribute. Blocks form a tree via Children.
// Capacity == nil means unlimited. participantsInBlockCount <= capacity is a
// server-side invariant; the client never enforces it, only renders it.
type PublicBlock struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Capacity     *int               `json:"capacity"`
	AttributeID  AttributeID        `json:"attributeId"`
	Children     []PublicBlock      `json:"children"`
	Participants []BlockParticipant `json:"participants,omitempty"`
	Meta         BlockMeta          `json:"meta"`
}

// OccupancyLabel renders "current/capacity", or just "current" for unlimited
// blocks.
func (b PublicBlock) OccupancyLabel() string {
	current := strconv.Itoa(b.Meta.ParticipantsInBlockCount)
	if b.Capacity == nil {
		return current
	}
	return current + "/" + strconv.Itoa(*b.Capacity)
}

// IsFull reports whether the block has no free capacity left.
func (b PublicBlock) IsFull() bool {
	return b.Capacity != nil && b.Meta.ParticipantsInBlockCount >= *b.Capacity
}

// BlocksEqual deep-compares two fetched block trees. The occupancy poller
// uses it to skip state commits (and the re-renders they cause) when a poll
// returns the same data as the previous one.
func BlocksEqual(a, b []PublicBlock) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
