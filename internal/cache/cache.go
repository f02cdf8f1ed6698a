package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// Pending is an open material selection: the menu was shown to the owner of
// ID and the choice has not arrived yet. Token is the menu's ID as the host
// echoes it back with the click.
type Pending struct {
	Token    uuid.UUID
	ID       core.StructureID
	IssuedAt time.Time
}

// Waited is how long the selection has been open at now.
func (p Pending) Waited(now time.Time) time.Duration {
	return now.Sub(p.IssuedAt)
}

// PendingSelections holds at most one open selection per owner.
// Issuing a second selection for the same owner replaces the first.
type PendingSelections struct {
	m       sync.Mutex
	byOwner map[string]Pending
	now     func() time.Time
}

func NewPendingSelections() *PendingSelections {
	return &PendingSelections{
		byOwner: make(map[string]Pending),
		now:     time.Now,
	}
}

// Issue opens a selection for id, replacing any open selection of id.Owner.
func (c *PendingSelections) Issue(id core.StructureID) Pending {
	c.m.Lock()
	defer c.m.Unlock()
	p := Pending{
		Token:    uuid.New(),
		ID:       id,
		IssuedAt: c.now(),
	}
	c.byOwner[id.Owner] = p
	return p
}

// Peek returns the open selection of owner without closing it.
func (c *PendingSelections) Peek(owner string) (Pending, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	p, ok := c.byOwner[owner]
	return p, ok
}

// Complete closes the open selection of owner if it still carries token.
// It reports false when the selection was replaced or already closed.
func (c *PendingSelections) Complete(owner string, token uuid.UUID) bool {
	c.m.Lock()
	defer c.m.Unlock()
	p, ok := c.byOwner[owner]
	if !ok || p.Token != token {
		return false
	}
	delete(c.byOwner, owner)
	return true
}

// Len returns the number of open selections.
func (c *PendingSelections) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.byOwner)
}

