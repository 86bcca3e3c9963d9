// internal/repository/memory.go
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

// Memory is an in-process Repository. Transactions are serialised under a
// single mutex and roll back by restoring a snapshot of the whole state.
// Values are copied on the way in and out, so callers never share memory with
// the store.
type Memory struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	collaborations map[uuid.UUID]models.Collaboration
	deliverables   map[uuid.UUID]models.Deliverable
	messages       []models.Message
	ratings        map[uuid.UUID]models.Rating
	notifications  []models.Notification
	creators       map[uuid.UUID]models.CreatorProfile
	hotels         map[uuid.UUID]models.HotelProfile
	listings       map[uuid.UUID]models.HotelListing
	seq            int64
}

func NewMemory() *Memory {
	return &Memory{state: &memoryState{
		collaborations: make(map[uuid.UUID]models.Collaboration),
		deliverables:   make(map[uuid.UUID]models.Deliverable),
		ratings:        make(map[uuid.UUID]models.Rating),
		creators:       make(map[uuid.UUID]models.CreatorProfile),
		hotels:         make(map[uuid.UUID]models.HotelProfile),
		listings:       make(map[uuid.UUID]models.HotelListing),
	}}
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		collaborations: make(map[uuid.UUID]models.Collaboration, len(s.collaborations)),
		deliverables:   make(map[uuid.UUID]models.Deliverable, len(s.deliverables)),
		messages:       append([]models.Message(nil), s.messages...),
		ratings:        make(map[uuid.UUID]models.Rating, len(s.ratings)),
		notifications:  append([]models.Notification(nil), s.notifications...),
		creators:       make(map[uuid.UUID]models.CreatorProfile, len(s.creators)),
		hotels:         make(map[uuid.UUID]models.HotelProfile, len(s.hotels)),
		listings:       make(map[uuid.UUID]models.HotelListing, len(s.listings)),
		seq:            s.seq,
	}
	for k, v := range s.collaborations {
		out.collaborations[k] = v.Clone()
	}
	for k, v := range s.deliverables {
		out.deliverables[k] = v
	}
	for k, v := range s.ratings {
		out.ratings[k] = v
	}
	for k, v := range s.creators {
		out.creators[k] = v
	}
	for k, v := range s.hotels {
		out.hotels[k] = v
	}
	for k, v := range s.listings {
		out.listings[k] = v
	}
	return out
}

// AddCreator, AddHotel and AddListing populate the read-only directory.

func (m *Memory) AddCreator(p models.CreatorProfile) models.CreatorProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.state.creators[p.ID] = p
	return p
}

func (m *Memory) AddHotel(p models.HotelProfile) models.HotelProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.state.hotels[p.ID] = p
	return p
}

func (m *Memory) AddListing(l models.HotelListing) models.HotelListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.Hotel = nil
	m.state.listings[l.ID] = l
	return l
}

// memoryRepository is a handle on Memory. Outside a transaction every call
// takes the mutex; inside one the transaction already holds it.
type memoryRepository struct {
	m    *Memory
	inTx bool
}

// Repository returns a handle on m. Inside Transaction only the handle passed
// to fn may be used; the outer handle would wait on the held mutex.
func (m *Memory) Repository() Repository {
	return &memoryRepository{m: m}
}

func (r *memoryRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.m.mu.Lock()
	return r.m.mu.Unlock
}

func (r *memoryRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.lock()
	defer unlock()

	snapshot := r.m.state.clone()
	if err := fn(&memoryRepository{m: r.m, inTx: true}); err != nil {
		r.m.state = snapshot
		return err
	}
	return nil
}

func (r *memoryRepository) CreateCollaboration(ctx context.Context, c *models.Collaboration) error {
	defer r.lock()()
	s := r.m.state
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status.Active() {
		for _, existing := range s.collaborations {
			if existing.ListingID == c.ListingID && existing.CreatorID == c.CreatorID && existing.Status.Active() {
				return apperror.DuplicateActive(existing.ID.String())
			}
		}
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.collaborations[c.ID] = c.Clone()
	return nil
}

func (r *memoryRepository) withRelations(c models.Collaboration) *models.Collaboration {
	s := r.m.state
	out := c.Clone()
	if p, ok := s.creators[c.CreatorID]; ok {
		out.Creator = &p
	}
	if p, ok := s.hotels[c.HotelID]; ok {
		out.Hotel = &p
	}
	if l, ok := s.listings[c.ListingID]; ok {
		out.Listing = &l
	}
	return &out
}

func (r *memoryRepository) GetCollaboration(ctx context.Context, id uuid.UUID) (*models.Collaboration, error) {
	defer r.lock()()
	c, ok := r.m.state.collaborations[id]
	if !ok {
		return nil, apperror.NotFound("collaboration", nil)
	}
	return r.withRelations(c), nil
}

func (r *memoryRepository) LockCollaboration(ctx context.Context, id uuid.UUID, strength LockStrength) (*models.Collaboration, error) {
	defer r.lock()()
	c, ok := r.m.state.collaborations[id]
	if !ok {
		return nil, apperror.NotFound("collaboration", nil)
	}
	out := c.Clone()
	return &out, nil
}

func (r *memoryRepository) SaveCollaboration(ctx context.Context, c *models.Collaboration) error {
	defer r.lock()()
	s := r.m.state
	if _, ok := s.collaborations[c.ID]; !ok {
		return apperror.NotFound("collaboration", nil)
	}
	if c.Status.Active() {
		for _, existing := range s.collaborations {
			if existing.ID != c.ID && existing.ListingID == c.ListingID && existing.CreatorID == c.CreatorID && existing.Status.Active() {
				return apperror.DuplicateActive(existing.ID.String())
			}
		}
	}
	c.UpdatedAt = time.Now().UTC()
	s.collaborations[c.ID] = c.Clone()
	return nil
}

func (r *memoryRepository) FindActiveCollaboration(ctx context.Context, listingID, creatorID uuid.UUID) (*models.Collaboration, error) {
	defer r.lock()()
	for _, c := range r.m.state.collaborations {
		if c.ListingID == listingID && c.CreatorID == creatorID && c.Status.Active() {
			out := c.Clone()
			return &out, nil
		}
	}
	return nil, nil
}

func containsStatus(list []models.CollaborationStatus, s models.CollaborationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *memoryRepository) ListCollaborations(ctx context.Context, filter CollaborationFilter) ([]models.Collaboration, int64, error) {
	defer r.lock()()
	var matched []models.Collaboration
	for _, c := range r.m.state.collaborations {
		switch filter.Role {
		case models.PartyCreator:
			if c.CreatorID != filter.ProfileID {
				continue
			}
		case models.PartyHotel:
			if c.HotelID != filter.ProfileID {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			continue
		}
		if containsStatus(filter.ExcludeStatus, c.Status) {
			continue
		}
		if filter.InitiatorType != "" && c.InitiatorType != filter.InitiatorType {
			continue
		}
		if filter.ListingID != nil && c.ListingID != *filter.ListingID {
			continue
		}
		matched = append(matched, *r.withRelations(c))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := min(filter.Offset, len(matched))
		end := min(start+filter.Limit, len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *memoryRepository) CountDeliverables(ctx context.Context, collaborationID uuid.UUID) (int64, error) {
	defer r.lock()()
	var count int64
	for _, d := range r.m.state.deliverables {
		if d.CollaborationID == collaborationID {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepository) CreateDeliverables(ctx context.Context, deliverables []models.Deliverable) error {
	defer r.lock()()
	now := time.Now().UTC()
	for i := range deliverables {
		d := &deliverables[i]
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = d.CreatedAt
		r.m.state.deliverables[d.ID] = *d
	}
	return nil
}

func (r *memoryRepository) ListDeliverables(ctx context.Context, collaborationID uuid.UUID) ([]models.Deliverable, error) {
	defer r.lock()()
	var out []models.Deliverable
	for _, d := range r.m.state.deliverables {
		if d.CollaborationID == collaborationID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (r *memoryRepository) GetDeliverable(ctx context.Context, collaborationID, id uuid.UUID) (*models.Deliverable, error) {
	defer r.lock()()
	d, ok := r.m.state.deliverables[id]
	if !ok || d.CollaborationID != collaborationID {
		return nil, apperror.NotFound("deliverable", nil)
	}
	return &d, nil
}

func (r *memoryRepository) SaveDeliverable(ctx context.Context, d *models.Deliverable) error {
	defer r.lock()()
	if _, ok := r.m.state.deliverables[d.ID]; !ok {
		return apperror.NotFound("deliverable", nil)
	}
	d.UpdatedAt = time.Now().UTC()
	r.m.state.deliverables[d.ID] = *d
	return nil
}

// LockMessageLog is a no-op; memory transactions already run one at a time.
func (r *memoryRepository) LockMessageLog(ctx context.Context, collaborationID uuid.UUID) error {
	return ctx.Err()
}

func (r *memoryRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	defer r.lock()()
	s := r.m.state
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	s.seq++
	msg.Seq = s.seq
	s.messages = append(s.messages, *msg)
	return nil
}

func (r *memoryRepository) messagesOf(collaborationID uuid.UUID) []models.Message {
	var out []models.Message
	for _, msg := range r.m.state.messages {
		if msg.CollaborationID == collaborationID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func (r *memoryRepository) LastMessage(ctx context.Context, collaborationID uuid.UUID) (*models.Message, error) {
	defer r.lock()()
	messages := r.messagesOf(collaborationID)
	if len(messages) == 0 {
		return nil, nil
	}
	last := messages[len(messages)-1]
	return &last, nil
}

func (r *memoryRepository) LastMessageSeq(ctx context.Context, collaborationID uuid.UUID) (int64, error) {
	defer r.lock()()
	var seq int64
	for _, msg := range r.m.state.messages {
		if msg.CollaborationID == collaborationID && msg.Seq > seq {
			seq = msg.Seq
		}
	}
	return seq, nil
}

func (r *memoryRepository) ListMessagesAfter(ctx context.Context, collaborationID uuid.UUID, after time.Time, afterSeq, upToSeq int64, limit int) ([]models.Message, error) {
	defer r.lock()()
	var out []models.Message
	for _, msg := range r.messagesOf(collaborationID) {
		if msg.Seq > upToSeq {
			continue
		}
		if msg.CreatedAt.Before(after) || (msg.CreatedAt.Equal(after) && msg.Seq <= afterSeq) {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func unreadBy(msg models.Message, collaborationID, readerUserID uuid.UUID) bool {
	if msg.CollaborationID != collaborationID || msg.ReadAt != nil {
		return false
	}
	return msg.SenderUserID == nil || *msg.SenderUserID != readerUserID
}

func (r *memoryRepository) MarkMessagesRead(ctx context.Context, collaborationID, readerUserID uuid.UUID, at time.Time) (int64, error) {
	defer r.lock()()
	var n int64
	for i, msg := range r.m.state.messages {
		if unreadBy(msg, collaborationID, readerUserID) {
			readAt := at
			r.m.state.messages[i].ReadAt = &readAt
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) CountUnread(ctx context.Context, collaborationID, readerUserID uuid.UUID) (int64, error) {
	defer r.lock()()
	var n int64
	for _, msg := range r.m.state.messages {
		if unreadBy(msg, collaborationID, readerUserID) {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) FindRating(ctx context.Context, collaborationID uuid.UUID) (*models.Rating, error) {
	defer r.lock()()
	for _, rating := range r.m.state.ratings {
		if rating.CollaborationID == collaborationID {
			return &rating, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) CreateRating(ctx context.Context, rating *models.Rating) error {
	defer r.lock()()
	for _, existing := range r.m.state.ratings {
		if existing.CollaborationID == rating.CollaborationID {
			return apperror.Conflict("collaboration has already been rated")
		}
	}
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}
	rating.CreatedAt = time.Now().UTC()
	rating.UpdatedAt = rating.CreatedAt
	stored := *rating
	stored.Collaboration = nil
	r.m.state.ratings[rating.ID] = stored
	return nil
}

func (r *memoryRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer r.lock()()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now().UTC()
	n.UpdatedAt = n.CreatedAt
	r.m.state.notifications = append(r.m.state.notifications, *n)
	return nil
}

func (r *memoryRepository) ListNotifications(ctx context.Context, recipientUserID uuid.UUID, limit int) ([]models.Notification, error) {
	defer r.lock()()
	var out []models.Notification
	for i := len(r.m.state.notifications) - 1; i >= 0; i-- {
		n := r.m.state.notifications[i]
		if n.RecipientUserID != recipientUserID {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepository) FindCreatorByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorProfile, error) {
	defer r.lock()()
	for _, p := range r.m.state.creators {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) FindHotelByUserID(ctx context.Context, userID uuid.UUID) (*models.HotelProfile, error) {
	defer r.lock()()
	for _, p := range r.m.state.hotels {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) GetCreator(ctx context.Context, id uuid.UUID) (*models.CreatorProfile, error) {
	defer r.lock()()
	p, ok := r.m.state.creators[id]
	if !ok {
		return nil, apperror.NotFound("creator", nil)
	}
	return &p, nil
}

func (r *memoryRepository) GetHotel(ctx context.Context, id uuid.UUID) (*models.HotelProfile, error) {
	defer r.lock()()
	p, ok := r.m.state.hotels[id]
	if !ok {
		return nil, apperror.NotFound("hotel", nil)
	}
	return &p, nil
}

func (r *memoryRepository) GetListing(ctx context.Context, id uuid.UUID) (*models.HotelListing, error) {
	defer r.lock()()
	l, ok := r.m.state.listings[id]
	if !ok {
		return nil, apperror.NotFound("listing", nil)
	}
	return &l, nil
}
