package repository

import (
	"context"
	"sync"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

// ProposalRepository owns the ordered in-memory proposal collection and the
// monotonic id counter. Records never leave the store by reference.
type ProposalRepository struct {
	mu     sync.RWMutex
	items  []models.Proposal
	nextID int64
}

// NewProposalRepository constructs an empty repository.
func NewProposalRepository() *ProposalRepository {
	return &ProposalRepository{}
}

// NextID reserves the next identifier. Identifiers are never reused, even
// when the reserving insert is abandoned.
func (r *ProposalRepository) NextID(ctx context.Context) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID
}

// Insert places a proposal at the head of the collection.
func (r *ProposalRepository) Insert(ctx context.Context, proposal models.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(proposal.ID) >= 0 {
		return appErrors.Clone(appErrors.ErrConflict, "proposal id already exists")
	}
	if proposal.ID > r.nextID {
		r.nextID = proposal.ID
	}
	r.items = append([]models.Proposal{proposal.Clone()}, r.items...)
	return nil
}

// Seed appends fixtures in the given order and advances the counter past
// the largest id seen. Fixtures without an id are numbered after every
// explicit id in the batch.
func (r *ProposalRepository) Seed(ctx context.Context, proposals []models.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, proposal := range proposals {
		if proposal.ID > r.nextID {
			r.nextID = proposal.ID
		}
	}
	for _, proposal := range proposals {
		if proposal.ID <= 0 {
			r.nextID++
			proposal.ID = r.nextID
		}
		if r.indexOf(proposal.ID) >= 0 {
			return appErrors.Clone(appErrors.ErrConflict, "duplicate seed proposal id")
		}
		if proposal.ID > r.nextID {
			r.nextID = proposal.ID
		}
		r.items = append(r.items, proposal.Clone())
	}
	return nil
}

// Update replaces a stored proposal in place, preserving its position.
func (r *ProposalRepository) Update(ctx context.Context, proposal models.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(proposal.ID)
	if idx < 0 {
		return appErrors.NotFound("proposal", proposal.ID)
	}
	r.items[idx] = proposal.Clone()
	return nil
}

// FindByID returns a copy of the proposal with the given id.
func (r *ProposalRepository) FindByID(ctx context.Context, id int64) (*models.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, appErrors.NotFound("proposal", id)
	}
	proposal := r.items[idx].Clone()
	return &proposal, nil
}

// List returns copies of every proposal in collection order.
func (r *ProposalRepository) List(ctx context.Context) ([]models.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Proposal, len(r.items))
	for i, item := range r.items {
		out[i] = item.Clone()
	}
	return out, nil
}

// FindActiveConflict returns the first Pending or Approved proposal booked on
// exactly the same date and time, ignoring excludeID. A zero excludeID
// excludes nothing.
func (r *ProposalRepository) FindActiveConflict(ctx context.Context, slot models.Slot, excludeID int64) (*models.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if excludeID != 0 && item.ID == excludeID {
			continue
		}
		if !item.Status.Active() {
			continue
		}
		if item.Date == slot.Date && item.Time == slot.Time {
			found := item.Clone()
			return &found, nil
		}
	}
	return nil, nil
}

// Count reports the number of stored proposals.
func (r *ProposalRepository) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *ProposalRepository) indexOf(id int64) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}
