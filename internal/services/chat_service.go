// internal/services/chat_service.go
package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/auditlog"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/repository"
	"github.com/javajoker/collab-backend/internal/utils"
)

const maxMessagePageSize = 100

type ChatService struct {
	repo          repository.Repository
	log           *auditlog.Log
	notifications *NotificationService
}

type PostMessageRequest struct {
	MessageType models.MessageKind `json:"message_type" validate:"omitempty,oneof=text image"`
	Content     string             `json:"content" validate:"required"`
}

type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type Conversation struct {
	Collaboration models.Collaboration `json:"collaboration"`
	LastMessage   *models.Message      `json:"last_message"`
	UnreadCount   int64                `json:"unread_count"`
}

func NewChatService(repo repository.Repository, log *auditlog.Log, notifications *NotificationService) *ChatService {
	return &ChatService{
		repo:          repo,
		log:           log,
		notifications: notifications,
	}
}

// PostMessage appends a text or image message from actor. System messages
// are written by the collaboration service only.
func (s *ChatService) PostMessage(ctx context.Context, actor models.Party, collaborationID uuid.UUID, req *PostMessageRequest) (*models.Message, error) {
	// Validate request
	if err := utils.ValidateRequest(req, "invalid message"); err != nil {
		return nil, err
	}

	var entry auditlog.HumanEntry
	content := strings.TrimSpace(req.Content)
	if req.MessageType == models.MessageKindImage {
		entry = auditlog.Image{Sender: actor, URL: content}
	} else {
		entry = auditlog.Text{Sender: actor, Content: content}
	}

	var (
		collaboration *models.Collaboration
		message       *models.Message
	)
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		c, err := tx.LockCollaboration(ctx, collaborationID, repository.LockShare)
		if err != nil {
			return err
		}
		if err := authorize(actor, c); err != nil {
			return err
		}
		collaboration = c

		message, err = s.log.With(tx).Append(ctx, c.ID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.SendNewMessage(collaboration, actor, message)
	return message, nil
}

// ListMessages returns one page of the log after cursor. An empty cursor
// starts at the beginning.
func (s *ChatService) ListMessages(ctx context.Context, actor models.Party, collaborationID uuid.UUID, cursor string, limit int) (*MessagePage, error) {
	after, err := auditlog.ParseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}

	collaboration, err := s.repo.GetCollaboration(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, collaboration); err != nil {
		return nil, err
	}

	messages, next, err := s.log.Page(ctx, collaborationID, after, limit)
	if err != nil {
		return nil, err
	}
	return &MessagePage{Messages: messages, NextCursor: next}, nil
}

// MarkRead marks everything the counterpart and the system wrote as read by actor.
func (s *ChatService) MarkRead(ctx context.Context, actor models.Party, collaborationID uuid.UUID) (int64, error) {
	var marked int64
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		c, err := tx.LockCollaboration(ctx, collaborationID, repository.LockShare)
		if err != nil {
			return err
		}
		if err := authorize(actor, c); err != nil {
			return err
		}
		marked, err = s.log.With(tx).MarkRead(ctx, c.ID, actor.UserID)
		return err
	})
	return marked, err
}

// Conversations lists the non-pending collaborations of actor with their
// latest message and unread count, most recent activity first.
func (s *ChatService) Conversations(ctx context.Context, actor models.Party) ([]Conversation, error) {
	collaborations, _, err := s.repo.ListCollaborations(ctx, repository.CollaborationFilter{
		Role:          actor.Role,
		ProfileID:     actor.ProfileID,
		ExcludeStatus: []models.CollaborationStatus{models.StatusPending},
	})
	if err != nil {
		return nil, err
	}

	conversations := make([]Conversation, 0, len(collaborations))
	for _, c := range collaborations {
		last, err := s.repo.LastMessage(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		unread, err := s.repo.CountUnread(ctx, c.ID, actor.UserID)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, Conversation{
			Collaboration: c,
			LastMessage:   last,
			UnreadCount:   unread,
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return lastActivity(conversations[i]).After(lastActivity(conversations[j]))
	})
	return conversations, nil
}

func lastActivity(c Conversation) time.Time {
	at := c.Collaboration.UpdatedAt
	if c.LastMessage != nil && c.LastMessage.CreatedAt.After(at) {
		at = c.LastMessage.CreatedAt
	}
	return at
}
