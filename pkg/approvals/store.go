// Package approvals keeps a process-lifetime queue of pending admin
// actions. The gateway ships with approvals disabled; the store and its
// code paths are kept so enabling them is a config change, not a rewrite.
package approvals

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Approval is one queued admin action awaiting a decision.
type Approval struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Summary   string    `json:"summary"`
	Payload   any       `json:"payload"`
	Status    string    `json:"status"`
	DecidedAt time.Time `json:"decidedAt,omitzero"`
	DecidedBy string    `json:"decidedBy,omitempty"`
}

// Store is an in-memory approval queue, newest first. Contents do not
// survive a restart.
type Store struct {
	mu    sync.Mutex
	items []*Approval
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Create queues a pending approval and returns it.
func (s *Store) Create(action, summary string, payload any, actor string) *Approval {
	a := &Approval{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		Actor:     actor,
		Action:    action,
		Summary:   summary,
		Payload:   payload,
		Status:    StatusPending,
	}
	s.mu.Lock()
	s.items = append([]*Approval{a}, s.items...)
	s.mu.Unlock()
	return a
}

// List returns a snapshot of all approvals, newest first.
func (s *Store) List() []Approval {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Approval, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, *a)
	}
	return out
}

// Get returns an approval by id, or nil.
func (s *Store) Get(id string) *Approval {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.ID == id {
			cp := *a
			return &cp
		}
	}
	return nil
}

// Decide marks an approval approved or rejected. Returns nil when the id
// is unknown. Deciding twice overwrites the earlier decision.
func (s *Store) Decide(id, status, decidedBy string) *Approval {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.ID == id {
			a.Status = status
			a.DecidedAt = s.now()
			a.DecidedBy = decidedBy
			cp := *a
			return &cp
		}
	}
	return nil
}
