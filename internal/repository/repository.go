// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/models"
)

// LockStrength is the row lock taken on a collaboration for the rest of a
// transaction. Status-changing mutations take LockUpdate; deliverable and chat
// writes take LockShare so they run alongside each other but never alongside a
// status change.
type LockStrength string

const (
	LockUpdate LockStrength = "UPDATE"
	LockShare  LockStrength = "SHARE"
)

type CollaborationFilter struct {
	Role          models.PartyRole
	ProfileID     uuid.UUID
	Statuses      []models.CollaborationStatus
	ExcludeStatus []models.CollaborationStatus
	InitiatorType models.PartyRole
	ListingID     *uuid.UUID
	Offset        int
	Limit         int
}

// Repository is the persistence port of the service. Lookups of single rows
// return an apperror NotFound when the row does not exist; the Find* methods
// return nil, nil instead.
type Repository interface {
	// Transaction runs fn against a repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	CreateCollaboration(ctx context.Context, c *models.Collaboration) error
	GetCollaboration(ctx context.Context, id uuid.UUID) (*models.Collaboration, error)
	LockCollaboration(ctx context.Context, id uuid.UUID, strength LockStrength) (*models.Collaboration, error)
	SaveCollaboration(ctx context.Context, c *models.Collaboration) error
	FindActiveCollaboration(ctx context.Context, listingID, creatorID uuid.UUID) (*models.Collaboration, error)
	ListCollaborations(ctx context.Context, filter CollaborationFilter) ([]models.Collaboration, int64, error)

	CountDeliverables(ctx context.Context, collaborationID uuid.UUID) (int64, error)
	CreateDeliverables(ctx context.Context, deliverables []models.Deliverable) error
	ListDeliverables(ctx context.Context, collaborationID uuid.UUID) ([]models.Deliverable, error)
	GetDeliverable(ctx context.Context, collaborationID, id uuid.UUID) (*models.Deliverable, error)
	SaveDeliverable(ctx context.Context, d *models.Deliverable) error

	// LockMessageLog serialises appends to one collaboration's log until the
	// surrounding transaction ends.
	LockMessageLog(ctx context.Context, collaborationID uuid.UUID) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	LastMessage(ctx context.Context, collaborationID uuid.UUID) (*models.Message, error)
	LastMessageSeq(ctx context.Context, collaborationID uuid.UUID) (int64, error)
	ListMessagesAfter(ctx context.Context, collaborationID uuid.UUID, after time.Time, afterSeq, upToSeq int64, limit int) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, collaborationID, readerUserID uuid.UUID, at time.Time) (int64, error)
	CountUnread(ctx context.Context, collaborationID, readerUserID uuid.UUID) (int64, error)

	FindRating(ctx context.Context, collaborationID uuid.UUID) (*models.Rating, error)
	CreateRating(ctx context.Context, r *models.Rating) error

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipientUserID uuid.UUID, limit int) ([]models.Notification, error)

	FindCreatorByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorProfile, error)
	FindHotelByUserID(ctx context.Context, userID uuid.UUID) (*models.HotelProfile, error)
	GetCreator(ctx context.Context, id uuid.UUID) (*models.CreatorProfile, error)
	GetHotel(ctx context.Context, id uuid.UUID) (*models.HotelProfile, error)
	GetListing(ctx context.Context, id uuid.UUID) (*models.HotelListing, error)
}
