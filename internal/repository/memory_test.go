package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

func newCollaboration(listingID, creatorID uuid.UUID, status models.CollaborationStatus) *models.Collaboration {
	return &models.Collaboration{
		ListingID: listingID,
		CreatorID: creatorID,
		HotelID:   uuid.New(),
		Status:    status,
	}
}

func TestMemoryRejectsSecondActiveCollaboration(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Repository()
	listing, creator := uuid.New(), uuid.New()

	first := newCollaboration(listing, creator, models.StatusPending)
	require.NoError(t, repo.CreateCollaboration(ctx, first))

	err := repo.CreateCollaboration(ctx, newCollaboration(listing, creator, models.StatusPending))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindDuplicateActive))
	assert.Equal(t, first.ID.String(), apperror.From(err).Details["existing_collaboration_id"])

	// a different listing is unaffected
	assert.NoError(t, repo.CreateCollaboration(ctx, newCollaboration(uuid.New(), creator, models.StatusPending)))
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Repository()
	c := newCollaboration(uuid.New(), uuid.New(), models.StatusPending)
	require.NoError(t, repo.CreateCollaboration(ctx, c))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx Repository) error {
		locked, err := tx.LockCollaboration(ctx, c.ID, LockUpdate)
		require.NoError(t, err)
		locked.Status = models.StatusDeclined
		require.NoError(t, tx.SaveCollaboration(ctx, locked))
		require.NoError(t, tx.CreateMessage(ctx, &models.Message{CollaborationID: c.ID, Kind: models.MessageKindSystem, Content: "declined"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.GetCollaboration(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	seq, err := repo.LastMessageSeq(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Repository()
	amount := 100.0
	c := newCollaboration(uuid.New(), uuid.New(), models.StatusPending)
	c.PaidAmount = &amount
	require.NoError(t, repo.CreateCollaboration(ctx, c))

	*c.PaidAmount = 1
	got, err := repo.GetCollaboration(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *got.PaidAmount)

	*got.PaidAmount = 2
	again, err := repo.GetCollaboration(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *again.PaidAmount)
}

func TestMemoryListCollaborationsScopesByParty(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Repository()
	creator := uuid.New()

	mine := newCollaboration(uuid.New(), creator, models.StatusPending)
	declined := newCollaboration(uuid.New(), creator, models.StatusDeclined)
	other := newCollaboration(uuid.New(), uuid.New(), models.StatusPending)
	for _, c := range []*models.Collaboration{mine, declined, other} {
		require.NoError(t, repo.CreateCollaboration(ctx, c))
	}

	list, total, err := repo.ListCollaborations(ctx, CollaborationFilter{Role: models.PartyCreator, ProfileID: creator})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.ListCollaborations(ctx, CollaborationFilter{
		Role:      models.PartyCreator,
		ProfileID: creator,
		Statuses:  []models.CollaborationStatus{models.StatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mine.ID, list[0].ID)
}

func TestMemoryMarkMessagesRead(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Repository()
	collab := uuid.New()
	me, them := uuid.New(), uuid.New()

	require.NoError(t, repo.CreateMessage(ctx, &models.Message{CollaborationID: collab, SenderUserID: &me, Kind: models.MessageKindText}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{CollaborationID: collab, SenderUserID: &them, Kind: models.MessageKindText}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{CollaborationID: collab, Kind: models.MessageKindSystem}))

	unread, err := repo.CountUnread(ctx, collab, me)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	n, err := repo.MarkMessagesRead(ctx, collab, me, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = repo.CountUnread(ctx, collab, me)
	require.NoError(t, err)
	assert.Zero(t, unread)

	unread, err = repo.CountUnread(ctx, collab, them)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread, "my own message is still unread for the other party")
}
