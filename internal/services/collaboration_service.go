// internal/services/collaboration_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/auditlog"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/negotiation"
	"github.com/javajoker/collab-backend/internal/repository"
	"github.com/javajoker/collab-backend/internal/utils"
)

// CollaborationService creates collaborations and routes every mutation of an
// existing one through the negotiation engine. Each mutation runs in one
// transaction holding the collaboration row lock and appends exactly one
// system message describing what changed.
type CollaborationService struct {
	repo          repository.Repository
	engine        *negotiation.Engine
	log           *auditlog.Log
	deliverables  *DeliverableService
	notifications *NotificationService
}

type CreateCollaborationRequest struct {
	negotiation.TermsPatch
	ListingID     uuid.UUID        `json:"listing_id" validate:"required"`
	CreatorID     *uuid.UUID       `json:"creator_id,omitempty"`
	InitiatorType models.PartyRole `json:"initiator_type,omitempty" validate:"omitempty,oneof=creator hotel"`
	WhyGreatFit   string           `json:"why_great_fit,omitempty" validate:"max=500"`
	Consent       *bool            `json:"consent,omitempty"`
}

type RespondRequest struct {
	Status          models.CollaborationStatus `json:"status" validate:"required,oneof=accepted declined"`
	ResponseMessage string                     `json:"response_message,omitempty" validate:"max=5000"`
}

type CancelCollaborationRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

type RateCollaborationRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

type CollaborationSearchParams struct {
	utils.PaginationParams
	Status        *models.CollaborationStatus `json:"status,omitempty"`
	InitiatorType *models.PartyRole           `json:"initiator_type,omitempty"`
	ListingID     *uuid.UUID                  `json:"listing_id,omitempty"`
}

func NewCollaborationService(
	repo repository.Repository,
	engine *negotiation.Engine,
	log *auditlog.Log,
	deliverables *DeliverableService,
	notifications *NotificationService,
) *CollaborationService {
	return &CollaborationService{
		repo:          repo,
		engine:        engine,
		log:           log,
		deliverables:  deliverables,
		notifications: notifications,
	}
}

// CreateCollaboration opens a collaboration on behalf of actor: an
// application when actor is a creator, an invitation when actor is a hotel.
func (s *CollaborationService) CreateCollaboration(ctx context.Context, actor models.Party, req *CreateCollaborationRequest) (*models.Collaboration, error) {
	// Validate request
	if err := utils.ValidateRequest(req, "invalid collaboration request"); err != nil {
		return nil, err
	}
	if req.InitiatorType != "" && req.InitiatorType != actor.Role {
		return nil, apperror.Forbidden("initiator_type does not match the authenticated party")
	}

	listing, err := s.repo.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	collaboration := &models.Collaboration{
		ListingID:          listing.ID,
		HotelID:            listing.HotelProfileID,
		CollaborationTerms: req.Terms(),
	}

	switch actor.Role {
	case models.PartyCreator:
		var fields []apperror.FieldError
		if req.Consent == nil || !*req.Consent {
			fields = append(fields, apperror.FieldError{Field: "consent", Message: "consent must be given to apply"})
		}
		if strings.TrimSpace(req.WhyGreatFit) == "" {
			fields = append(fields, apperror.FieldError{Field: "why_great_fit", Message: "why_great_fit is required"})
		}
		if len(fields) > 0 {
			return nil, apperror.Validation("invalid collaboration application", fields...)
		}
		collaboration.CreatorID = actor.ProfileID
		collaboration.WhyGreatFit = strings.TrimSpace(req.WhyGreatFit)
		consent := true
		collaboration.Consent = &consent

	case models.PartyHotel:
		if listing.HotelProfileID != actor.ProfileID {
			return nil, apperror.Forbidden("listing does not belong to your hotel")
		}
		if req.CreatorID == nil {
			return nil, apperror.Validation("invalid collaboration invitation", apperror.FieldError{
				Field: "creator_id", Message: "creator_id is required",
			})
		}
		creator, err := s.repo.GetCreator(ctx, *req.CreatorID)
		if err != nil {
			return nil, err
		}
		collaboration.CreatorID = creator.ID

	default:
		return nil, apperror.Forbidden("only creators and hotels can create collaborations")
	}

	change, err := s.engine.Start(collaboration, actor.Role)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		existing, err := tx.FindActiveCollaboration(ctx, collaboration.ListingID, collaboration.CreatorID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.DuplicateActive(existing.ID.String())
		}
		if err := tx.CreateCollaboration(ctx, collaboration); err != nil {
			return err
		}
		return s.appendChange(ctx, tx, collaboration, change)
	})
	if err != nil {
		return nil, err
	}

	s.logChange(actor, collaboration, change)
	s.notifications.SendCollaborationChange(collaboration, actor, change)

	return s.repo.GetCollaboration(ctx, collaboration.ID)
}

func (s *CollaborationService) ProposeTerms(ctx context.Context, actor models.Party, id uuid.UUID, patch negotiation.TermsPatch) (*models.Collaboration, error) {
	return s.mutate(ctx, actor, id, func(c *models.Collaboration) (*negotiation.Change, error) {
		return s.engine.Propose(c, actor.Role, patch)
	}, nil)
}

func (s *CollaborationService) AgreeToTerms(ctx context.Context, actor models.Party, id uuid.UUID) (*models.Collaboration, error) {
	return s.mutate(ctx, actor, id, func(c *models.Collaboration) (*negotiation.Change, error) {
		return s.engine.Agree(c, actor.Role)
	}, nil)
}

func (s *CollaborationService) DeclineCollaboration(ctx context.Context, actor models.Party, id uuid.UUID) (*models.Collaboration, error) {
	return s.mutate(ctx, actor, id, func(c *models.Collaboration) (*negotiation.Change, error) {
		return s.engine.Decline(c, actor.Role)
	}, nil)
}

// Respond accepts or declines in one call. Accepting is an agreement to the
// current terms. The optional response message is posted by actor right
// after the system message, in the same transaction. It is kept even when the
// response changes nothing, such as a repeated decline.
func (s *CollaborationService) Respond(ctx context.Context, actor models.Party, id uuid.UUID, req *RespondRequest) (*models.Collaboration, error) {
	// Validate request
	if err := utils.ValidateRequest(req, "invalid response"); err != nil {
		return nil, err
	}

	apply := func(c *models.Collaboration) (*negotiation.Change, error) {
		if req.Status == models.StatusAccepted {
			return s.engine.Agree(c, actor.Role)
		}
		return s.engine.Decline(c, actor.Role)
	}

	var then func(tx repository.Repository, c *models.Collaboration) error
	if message := strings.TrimSpace(req.ResponseMessage); message != "" {
		then = func(tx repository.Repository, c *models.Collaboration) error {
			_, err := s.log.With(tx).Append(ctx, c.ID, auditlog.Text{Sender: actor, Content: message})
			return err
		}
	}

	return s.mutate(ctx, actor, id, apply, then)
}

func (s *CollaborationService) CancelCollaboration(ctx context.Context, actor models.Party, id uuid.UUID, req *CancelCollaborationRequest) (*models.Collaboration, error) {
	// Validate request
	if err := utils.ValidateRequest(req, "invalid cancellation"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, func(c *models.Collaboration) (*negotiation.Change, error) {
		return s.engine.Cancel(c, actor.Role, req.Reason)
	}, nil)
}

func (s *CollaborationService) CompleteCollaboration(ctx context.Context, actor models.Party, id uuid.UUID) (*models.Collaboration, error) {
	return s.mutate(ctx, actor, id, func(c *models.Collaboration) (*negotiation.Change, error) {
		return s.engine.Complete(c, actor.Role)
	}, nil)
}

// mutate runs apply against the locked collaboration and persists the result.
// A nil change from apply is a no-op: nothing is written and the current
// state is returned. then runs in the same transaction in both cases.
func (s *CollaborationService) mutate(
	ctx context.Context,
	actor models.Party,
	id uuid.UUID,
	apply func(c *models.Collaboration) (*negotiation.Change, error),
	then func(tx repository.Repository, c *models.Collaboration) error,
) (*models.Collaboration, error) {
	var (
		collaboration *models.Collaboration
		change        *negotiation.Change
	)

	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		c, err := tx.LockCollaboration(ctx, id, repository.LockUpdate)
		if err != nil {
			return err
		}
		if err := authorize(actor, c); err != nil {
			return err
		}

		change, err = apply(c)
		if err != nil {
			return err
		}
		collaboration = c
		if change == nil {
			if then != nil {
				return then(tx, c)
			}
			return nil
		}

		if err := tx.SaveCollaboration(ctx, c); err != nil {
			return err
		}

		if c.Status == models.StatusAccepted || c.Status == models.StatusCompleted {
			if _, err := s.deliverables.Seed(ctx, tx, c); err != nil {
				return err
			}
		}

		if err := s.appendChange(ctx, tx, c, change); err != nil {
			return err
		}
		if then != nil {
			return then(tx, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if change != nil {
		s.logChange(actor, collaboration, change)
		s.notifications.SendCollaborationChange(collaboration, actor, change)
	}

	return s.repo.GetCollaboration(ctx, id)
}

func (s *CollaborationService) appendChange(ctx context.Context, tx repository.Repository, c *models.Collaboration, change *negotiation.Change) error {
	_, err := s.log.With(tx).Append(ctx, c.ID, auditlog.System{
		Content:  change.Summary(),
		Metadata: change.Metadata(),
	})
	if err != nil {
		return fmt.Errorf("failed to record collaboration change: %w", err)
	}
	return nil
}

func (s *CollaborationService) logChange(actor models.Party, c *models.Collaboration, change *negotiation.Change) {
	utils.LogInfo("collaboration "+string(change.Action), logrus.Fields{
		"collaboration_id": c.ID,
		"actor":            actor.Role,
		"user_id":          actor.UserID,
		"old_status":       change.OldStatus,
		"new_status":       change.NewStatus,
		"terms_version":    change.TermsVersion,
	})
}

func (s *CollaborationService) GetCollaboration(ctx context.Context, actor models.Party, id uuid.UUID) (*models.Collaboration, error) {
	collaboration, err := s.repo.GetCollaboration(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, collaboration); err != nil {
		return nil, err
	}
	return collaboration, nil
}

func (s *CollaborationService) SearchCollaborations(ctx context.Context, actor models.Party, params CollaborationSearchParams) ([]models.Collaboration, int64, error) {
	page := params.PaginationParams.Normalize()
	filter := repository.CollaborationFilter{
		Role:      actor.Role,
		ProfileID: actor.ProfileID,
		ListingID: params.ListingID,
		Offset:    page.Offset(),
		Limit:     page.Limit,
	}
	if params.Status != nil {
		filter.Statuses = []models.CollaborationStatus{*params.Status}
	}
	if params.InitiatorType != nil {
		filter.InitiatorType = *params.InitiatorType
	}

	return s.repo.ListCollaborations(ctx, filter)
}

// RateCollaboration lets the hotel rate the creator once the collaboration is completed.
func (s *CollaborationService) RateCollaboration(ctx context.Context, actor models.Party, id uuid.UUID, req *RateCollaborationRequest) (*models.Rating, error) {
	// Validate request
	if err := utils.ValidateRequest(req, "invalid rating"); err != nil {
		return nil, err
	}
	if actor.Role != models.PartyHotel {
		return nil, apperror.Forbidden("only the hotel can rate a collaboration")
	}

	var rating *models.Rating
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		c, err := tx.LockCollaboration(ctx, id, repository.LockShare)
		if err != nil {
			return err
		}
		if err := authorize(actor, c); err != nil {
			return err
		}
		if c.Status != models.StatusCompleted {
			return apperror.InvalidTransition(string(c.Status), "rate")
		}

		existing, err := tx.FindRating(ctx, c.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("collaboration has already been rated")
		}

		rating = &models.Rating{
			CollaborationID: c.ID,
			CreatorID:       c.CreatorID,
			HotelID:         c.HotelID,
			Rating:          req.Rating,
			Comment:         strings.TrimSpace(req.Comment),
		}
		return tx.CreateRating(ctx, rating)
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("collaboration rated", logrus.Fields{
		"collaboration_id": id,
		"rating":           rating.Rating,
	})
	return rating, nil
}
