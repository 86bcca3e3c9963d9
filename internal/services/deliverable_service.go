// internal/services/deliverable_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/repository"
	"github.com/javajoker/collab-backend/internal/utils"
)

// DeliverableService keeps the per-item checklist of an accepted collaboration.
type DeliverableService struct {
	repo  repository.Repository
	clock func() time.Time
}

type UpdateDeliverableRequest struct {
	Status models.DeliverableStatus `json:"status" validate:"required,oneof=pending completed"`
}

type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type DeliverableList struct {
	Deliverables []models.Deliverable `json:"deliverables"`
	Progress     Progress             `json:"progress"`
}

func NewDeliverableService(repo repository.Repository, clock func() time.Time) *DeliverableService {
	if clock == nil {
		clock = time.Now
	}
	return &DeliverableService{repo: repo, clock: clock}
}

// Seed creates one pending row per {platform, type} of the collaboration's
// terms, summing the quantity of repeated pairs. It does nothing when rows
// already exist, so it is safe to call on accept and again on complete. tx
// must be the transaction holding the collaboration lock.
func (s *DeliverableService) Seed(ctx context.Context, tx repository.Repository, c *models.Collaboration) (int, error) {
	count, err := tx.CountDeliverables(ctx, c.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count deliverables: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	type key struct {
		platform models.Platform
		kind     string
	}
	index := make(map[key]int)
	var rows []models.Deliverable
	base := s.clock().UTC().Truncate(time.Microsecond)

	for _, pd := range c.PlatformDeliverables {
		for _, spec := range pd.Deliverables {
			k := key{pd.Platform, spec.Type}
			if i, ok := index[k]; ok {
				rows[i].Quantity += spec.Quantity
				continue
			}
			index[k] = len(rows)
			rows = append(rows, models.Deliverable{
				CollaborationID: c.ID,
				Platform:        pd.Platform,
				Type:            spec.Type,
				Quantity:        spec.Quantity,
				Status:          models.DeliverableStatusPending,
			})
		}
	}

	// keep the order of the terms when listing
	for i := range rows {
		rows[i].CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
	}

	if err := tx.CreateDeliverables(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to seed deliverables: %w", err)
	}
	return len(rows), nil
}

func (s *DeliverableService) ListDeliverables(ctx context.Context, actor models.Party, collaborationID uuid.UUID) (*DeliverableList, error) {
	collaboration, err := s.repo.GetCollaboration(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, collaboration); err != nil {
		return nil, err
	}

	deliverables, err := s.repo.ListDeliverables(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if deliverables == nil {
		deliverables = []models.Deliverable{}
	}
	return &DeliverableList{
		Deliverables: deliverables,
		Progress:     ComputeProgress(deliverables),
	}, nil
}

// SetStatus marks one deliverable pending or completed. It holds a shared
// lock on the collaboration so it never interleaves with a status change.
func (s *DeliverableService) SetStatus(ctx context.Context, actor models.Party, collaborationID, deliverableID uuid.UUID, req *UpdateDeliverableRequest) (*models.Deliverable, error) {
	// Validate request
	if err := utils.ValidateRequest(req, "invalid deliverable update"); err != nil {
		return nil, err
	}

	var updated *models.Deliverable
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		collaboration, err := tx.LockCollaboration(ctx, collaborationID, repository.LockShare)
		if err != nil {
			return err
		}
		if err := authorize(actor, collaboration); err != nil {
			return err
		}

		deliverable, err := tx.GetDeliverable(ctx, collaborationID, deliverableID)
		if err != nil {
			return err
		}
		if deliverable.Status == req.Status {
			updated = deliverable
			return nil
		}

		deliverable.Status = req.Status
		if req.Status == models.DeliverableStatusCompleted {
			now := s.clock().UTC().Truncate(time.Microsecond)
			deliverable.CompletedAt = &now
		} else {
			deliverable.CompletedAt = nil
		}
		if err := tx.SaveDeliverable(ctx, deliverable); err != nil {
			return fmt.Errorf("failed to update deliverable: %w", err)
		}
		updated = deliverable
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ComputeProgress counts completed rows. An empty ledger is 0% done.
func ComputeProgress(deliverables []models.Deliverable) Progress {
	p := Progress{Total: len(deliverables)}
	for _, d := range deliverables {
		if d.Status == models.DeliverableStatusCompleted {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = math.Round(float64(p.Completed)/float64(p.Total)*10000) / 100
	}
	return p
}
