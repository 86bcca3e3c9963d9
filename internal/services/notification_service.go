// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/negotiation"
	"github.com/javajoker/collab-backend/internal/repository"
	"github.com/javajoker/collab-backend/internal/utils"
)

const (
	NotificationTypeCollaboration = "collaboration"
	NotificationTypeMessage       = "collaboration_message"

	notificationTimeout = 5 * time.Second
)

// NotificationService tells the counterpart of a collaboration that something
// changed. Dispatch happens after commit on its own goroutine; failures are
// logged and never reach the caller.
type NotificationService struct {
	repo      repository.Repository
	directory *DirectoryService
	wg        sync.WaitGroup
}

type NotificationRequest struct {
	UserID          uuid.UUID  `json:"user_id" validate:"required"`
	Type            string     `json:"type" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	Message         string     `json:"message" validate:"required"`
	CollaborationID *uuid.UUID `json:"collaboration_id,omitempty"`
}

func NewNotificationService(repo repository.Repository, directory *DirectoryService) *NotificationService {
	return &NotificationService{
		repo:      repo,
		directory: directory,
	}
}

// Collaboration notifications
func (s *NotificationService) SendCollaborationChange(c *models.Collaboration, actor models.Party, change *negotiation.Change) {
	title := "Collaboration update"
	switch change.Action {
	case negotiation.ActionCreate:
		title = "New collaboration request"
	case negotiation.ActionPropose:
		title = "New terms proposed"
	case negotiation.ActionAgree:
		if change.NewStatus == models.StatusAccepted {
			title = "Collaboration accepted"
		}
	case negotiation.ActionDecline:
		title = "Collaboration declined"
	case negotiation.ActionCancel:
		title = "Collaboration cancelled"
	case negotiation.ActionComplete:
		title = "Collaboration completed"
	}

	s.dispatch(c, actor, NotificationTypeCollaboration, title, change.Summary())
}

// Chat notifications
func (s *NotificationService) SendNewMessage(c *models.Collaboration, actor models.Party, msg *models.Message) {
	body := msg.Content
	if msg.Kind == models.MessageKindImage {
		body = "sent an image"
	}
	s.dispatch(c, actor, NotificationTypeMessage, "New message", body)
}

func (s *NotificationService) dispatch(c *models.Collaboration, actor models.Party, notificationType, title, message string) {
	snapshot := c.Clone()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()

		recipient, err := s.directory.UserIDOf(ctx, &snapshot, actor.Role.Other())
		if err != nil {
			utils.LogError(err, "failed to resolve notification recipient", logrus.Fields{
				"collaboration_id": snapshot.ID,
			})
			return
		}

		collaborationID := snapshot.ID
		err = s.SendCustomNotification(ctx, &NotificationRequest{
			UserID:          recipient,
			Type:            notificationType,
			Title:           title,
			Message:         message,
			CollaborationID: &collaborationID,
		})
		if err != nil {
			utils.LogError(err, "failed to send notification", logrus.Fields{
				"collaboration_id": snapshot.ID,
				"recipient":        recipient,
			})
		}
	}()
}

func (s *NotificationService) SendCustomNotification(ctx context.Context, req *NotificationRequest) error {
	if err := utils.ValidateRequest(req, "invalid notification"); err != nil {
		return err
	}

	notification := &models.Notification{
		RecipientUserID: req.UserID,
		Type:            req.Type,
		Title:           req.Title,
		Message:         req.Message,
		CollaborationID: req.CollaborationID,
	}
	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// ListNotifications returns the newest notifications of a user.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListNotifications(ctx, userID, limit)
}

// Wait blocks until every dispatched notification has been written.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
