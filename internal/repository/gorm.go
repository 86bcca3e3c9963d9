// internal/repository/gorm.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGorm returns a Repository backed by db. The database must be opened with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewGorm(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func notFound(resource string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource, err)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}

func (r *gormRepository) CreateCollaboration(ctx context.Context, c *models.Collaboration) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.DuplicateActive("")
		}
		return fmt.Errorf("failed to create collaboration: %w", err)
	}
	return nil
}

func (r *gormRepository) GetCollaboration(ctx context.Context, id uuid.UUID) (*models.Collaboration, error) {
	var c models.Collaboration
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Hotel").
		Preload("Listing").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, notFound("collaboration", err)
	}
	return &c, nil
}

func (r *gormRepository) LockCollaboration(ctx context.Context, id uuid.UUID, strength LockStrength) (*models.Collaboration, error) {
	var c models.Collaboration
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: string(strength)}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, notFound("collaboration", err)
	}
	return &c, nil
}

func (r *gormRepository) SaveCollaboration(ctx context.Context, c *models.Collaboration) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.DuplicateActive("")
		}
		return fmt.Errorf("failed to save collaboration: %w", err)
	}
	return nil
}

func (r *gormRepository) FindActiveCollaboration(ctx context.Context, listingID, creatorID uuid.UUID) (*models.Collaboration, error) {
	var c models.Collaboration
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND creator_id = ? AND status IN ?", listingID, creatorID,
			[]models.CollaborationStatus{models.StatusPending, models.StatusAccepted}).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check active collaborations: %w", err)
	}
	return &c, nil
}

func (r *gormRepository) ListCollaborations(ctx context.Context, filter CollaborationFilter) ([]models.Collaboration, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Collaboration{})

	switch filter.Role {
	case models.PartyCreator:
		query = query.Where("creator_id = ?", filter.ProfileID)
	case models.PartyHotel:
		query = query.Where("hotel_id = ?", filter.ProfileID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if len(filter.ExcludeStatus) > 0 {
		query = query.Where("status NOT IN ?", filter.ExcludeStatus)
	}
	if filter.InitiatorType != "" {
		query = query.Where("initiator_type = ?", filter.InitiatorType)
	}
	if filter.ListingID != nil {
		query = query.Where("listing_id = ?", *filter.ListingID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count collaborations: %w", err)
	}

	query = query.Preload("Creator").Preload("Hotel").Preload("Listing").
		Order("updated_at DESC").Order("id")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var collaborations []models.Collaboration
	if err := query.Find(&collaborations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list collaborations: %w", err)
	}
	return collaborations, total, nil
}

func (r *gormRepository) CountDeliverables(ctx context.Context, collaborationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Deliverable{}).
		Where("collaboration_id = ?", collaborationID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count deliverables: %w", err)
	}
	return count, nil
}

func (r *gormRepository) CreateDeliverables(ctx context.Context, deliverables []models.Deliverable) error {
	if len(deliverables) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&deliverables).Error; err != nil {
		return fmt.Errorf("failed to create deliverables: %w", err)
	}
	return nil
}

func (r *gormRepository) ListDeliverables(ctx context.Context, collaborationID uuid.UUID) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := r.db.WithContext(ctx).
		Where("collaboration_id = ?", collaborationID).
		Order("created_at").Order("platform").Order("type").
		Find(&deliverables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverables: %w", err)
	}
	return deliverables, nil
}

func (r *gormRepository) GetDeliverable(ctx context.Context, collaborationID, id uuid.UUID) (*models.Deliverable, error) {
	var d models.Deliverable
	err := r.db.WithContext(ctx).
		First(&d, "id = ? AND collaboration_id = ?", id, collaborationID).Error
	if err != nil {
		return nil, notFound("deliverable", err)
	}
	return &d, nil
}

func (r *gormRepository) SaveDeliverable(ctx context.Context, d *models.Deliverable) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("failed to save deliverable: %w", err)
	}
	return nil
}

// LockMessageLog takes a transaction-scoped advisory lock keyed on the
// collaboration. Seq values are then committed in order, so a reader that has
// seen position N never misses a message below it.
func (r *gormRepository) LockMessageLog(ctx context.Context, collaborationID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", collaborationID.String()).Error; err != nil {
		return fmt.Errorf("failed to lock message log: %w", err)
	}
	return nil
}

func (r *gormRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *gormRepository) LastMessage(ctx context.Context, collaborationID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Where("collaboration_id = ?", collaborationID).
		Order("created_at DESC").Order("seq DESC").
		Take(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *gormRepository) LastMessageSeq(ctx context.Context, collaborationID uuid.UUID) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("collaboration_id = ?", collaborationID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&seq).Error
	return seq, err
}

func (r *gormRepository) ListMessagesAfter(ctx context.Context, collaborationID uuid.UUID, after time.Time, afterSeq, upToSeq int64, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("collaboration_id = ? AND seq <= ?", collaborationID, upToSeq).
		Where("(created_at > ? OR (created_at = ? AND seq > ?))", after, after, afterSeq).
		Order("created_at").Order("seq").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *gormRepository) MarkMessagesRead(ctx context.Context, collaborationID, readerUserID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("collaboration_id = ? AND read_at IS NULL", collaborationID).
		Where("(sender_user_id IS NULL OR sender_user_id <> ?)", readerUserID).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}

func (r *gormRepository) CountUnread(ctx context.Context, collaborationID, readerUserID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("collaboration_id = ? AND read_at IS NULL", collaborationID).
		Where("(sender_user_id IS NULL OR sender_user_id <> ?)", readerUserID).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) FindRating(ctx context.Context, collaborationID uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).Where("collaboration_id = ?", collaborationID).Take(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rating: %w", err)
	}
	return &rating, nil
}

func (r *gormRepository) CreateRating(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rating).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("collaboration has already been rated")
		}
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

func (r *gormRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *gormRepository) ListNotifications(ctx context.Context, recipientUserID uuid.UUID, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_user_id = ?", recipientUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *gormRepository) FindCreatorByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorProfile, error) {
	var creator models.CreatorProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&creator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve creator profile: %w", err)
	}
	return &creator, nil
}

func (r *gormRepository) FindHotelByUserID(ctx context.Context, userID uuid.UUID) (*models.HotelProfile, error) {
	var hotel models.HotelProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&hotel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hotel profile: %w", err)
	}
	return &hotel, nil
}

func (r *gormRepository) GetCreator(ctx context.Context, id uuid.UUID) (*models.CreatorProfile, error) {
	var creator models.CreatorProfile
	if err := r.db.WithContext(ctx).First(&creator, "id = ?", id).Error; err != nil {
		return nil, notFound("creator", err)
	}
	return &creator, nil
}

func (r *gormRepository) GetHotel(ctx context.Context, id uuid.UUID) (*models.HotelProfile, error) {
	var hotel models.HotelProfile
	if err := r.db.WithContext(ctx).First(&hotel, "id = ?", id).Error; err != nil {
		return nil, notFound("hotel", err)
	}
	return &hotel, nil
}

func (r *gormRepository) GetListing(ctx context.Context, id uuid.UUID) (*models.HotelListing, error) {
	var listing models.HotelListing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, notFound("listing", err)
	}
	return &listing, nil
}
