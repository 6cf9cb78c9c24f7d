package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pitchdesk/pitchdesk/internal/idgen"
)

// MemoryScheduler is the in-process Scheduler.
type MemoryScheduler struct {
	mu       sync.Mutex
	slots    map[string]*Slot
	holds    map[string]*Hold
	bookings map[string]*Booking
	now      func() time.Time
}

// NewMemoryScheduler creates an empty scheduler.
func NewMemoryScheduler() *MemoryScheduler {
	return &MemoryScheduler{
		slots:    make(map[string]*Slot),
		holds:    make(map[string]*Hold),
		bookings: make(map[string]*Booking),
		now:      time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (s *MemoryScheduler) WithClock(now func() time.Time) *MemoryScheduler {
	s.now = now
	return s
}

func (s *MemoryScheduler) AddSlot(_ context.Context, slot *Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *slot
	if cp.ID == "" {
		cp.ID = idgen.WithPrefix("slot_")
	}
	if cp.Status == "" {
		cp.Status = SlotOpen
	}
	s.slots[cp.ID] = &cp
	return nil
}

func (s *MemoryScheduler) ListSlots(_ context.Context, companyID string, from, to time.Time) ([]*Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseExpiredLocked()

	var out []*Slot
	for _, slot := range s.slots {
		if slot.CompanyID != companyID {
			continue
		}
		if slot.StartsAt.Before(from) || slot.StartsAt.After(to) {
			continue
		}
		cp := *slot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func (s *MemoryScheduler) HoldSlot(_ context.Context, companyID, slotID string) (*Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseExpiredLocked()

	slot, ok := s.slots[slotID]
	if !ok || slot.CompanyID != companyID {
		return nil, ErrSlotNotFound
	}
	if slot.Status != SlotOpen {
		return nil, ErrSlotTaken
	}

	slot.Status = SlotHeld
	hold := &Hold{
		ID:        idgen.WithPrefix("hold_"),
		SlotID:    slotID,
		CompanyID: companyID,
		ExpiresAt: s.now().Add(HoldTTL),
	}
	s.holds[hold.ID] = hold
	cp := *hold
	return &cp, nil
}

func (s *MemoryScheduler) BookSlot(_ context.Context, companyID, holdID, email, name string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseExpiredLocked()

	hold, ok := s.holds[holdID]
	if !ok || hold.CompanyID != companyID {
		return nil, ErrHoldNotFound
	}

	slot := s.slots[hold.SlotID]
	slot.Status = SlotBooked
	delete(s.holds, holdID)

	b := &Booking{
		ID:        idgen.WithPrefix("bk_"),
		SlotID:    hold.SlotID,
		CompanyID: companyID,
		Email:     email,
		Name:      name,
		CreatedAt: s.now(),
	}
	s.bookings[b.ID] = b
	cp := *b
	return &cp, nil
}

// releaseExpiredLocked frees slots whose hold lapsed. Caller holds mu.
func (s *MemoryScheduler) releaseExpiredLocked() {
	now := s.now()
	for id, hold := range s.holds {
		if hold.ExpiresAt.After(now) {
			continue
		}
		if slot, ok := s.slots[hold.SlotID]; ok && slot.Status == SlotHeld {
			slot.Status = SlotOpen
		}
		delete(s.holds, id)
	}
}
