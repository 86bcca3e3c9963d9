// internal/auditlog/log.go
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

const DefaultPageSize = 100

// Store is the persistence the log needs. repository.Repository satisfies it.
type Store interface {
	LockMessageLog(ctx context.Context, collaborationID uuid.UUID) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	LastMessage(ctx context.Context, collaborationID uuid.UUID) (*models.Message, error)
	LastMessageSeq(ctx context.Context, collaborationID uuid.UUID) (int64, error)
	ListMessagesAfter(ctx context.Context, collaborationID uuid.UUID, after time.Time, afterSeq, upToSeq int64, limit int) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, collaborationID, readerUserID uuid.UUID, at time.Time) (int64, error)
}

// Log is the append-only message log of collaborations.
type Log struct {
	store    Store
	clock    func() time.Time
	pageSize int
	validate *validator.Validate
}

type Option func(*Log)

func WithClock(clock func() time.Time) Option {
	return func(l *Log) { l.clock = clock }
}

func WithPageSize(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

func New(store Store, opts ...Option) *Log {
	l := &Log{
		store:    store,
		clock:    time.Now,
		pageSize: DefaultPageSize,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// With returns a log bound to another store, typically a transaction.
func (l *Log) With(store Store) *Log {
	cp := *l
	cp.store = store
	return &cp
}

// Append stores entry at the end of the collaboration's log and returns the
// stored message with its position. A message is never stamped earlier than
// the message before it. Append must run inside a transaction so the log stays
// locked until the message is committed.
func (l *Log) Append(ctx context.Context, collaborationID uuid.UUID, entry Entry) (*models.Message, error) {
	if err := l.validate.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, apperror.Validation("invalid message", apperror.FieldError{
				Field:   "content",
				Message: fmt.Sprintf("%s failed on %s", verrs[0].Field(), verrs[0].Tag()),
			})
		}
		return nil, apperror.Validation("invalid message")
	}

	msg := entry.message()
	msg.CollaborationID = collaborationID
	msg.CreatedAt = l.clock().UTC().Truncate(time.Microsecond)

	if err := l.store.LockMessageLog(ctx, collaborationID); err != nil {
		return nil, fmt.Errorf("failed to lock log: %w", err)
	}
	last, err := l.store.LastMessage(ctx, collaborationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read log tail: %w", err)
	}
	if last != nil && msg.CreatedAt.Before(last.CreatedAt) {
		msg.CreatedAt = last.CreatedAt
	}

	if err := l.store.CreateMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &msg, nil
}

// ListSince yields the messages after position in log order. The sequence is
// lazy, fetching one page at a time, and finite: it stops at the last message
// that existed when iteration started. Ranging over it again, or calling
// ListSince with the position of any yielded message, resumes from there.
func (l *Log) ListSince(ctx context.Context, collaborationID uuid.UUID, after Position) iter.Seq2[models.Message, error] {
	return func(yield func(models.Message, error) bool) {
		upTo, err := l.store.LastMessageSeq(ctx, collaborationID)
		if err != nil {
			yield(models.Message{}, fmt.Errorf("failed to read log size: %w", err))
			return
		}

		cursor := after
		for {
			if err := ctx.Err(); err != nil {
				yield(models.Message{}, err)
				return
			}
			page, err := l.store.ListMessagesAfter(ctx, collaborationID, cursor.CreatedAt, cursor.Seq, upTo, l.pageSize)
			if err != nil {
				yield(models.Message{}, fmt.Errorf("failed to list messages: %w", err))
				return
			}
			for _, msg := range page {
				if !yield(msg, nil) {
					return
				}
				cursor = PositionOf(msg)
			}
			if len(page) < l.pageSize {
				return
			}
		}
	}
}

// Page collects at most limit messages after position and returns the cursor
// to continue from. The cursor is empty once the log is exhausted.
func (l *Log) Page(ctx context.Context, collaborationID uuid.UUID, after Position, limit int) ([]models.Message, string, error) {
	if limit <= 0 {
		limit = l.pageSize
	}
	messages := make([]models.Message, 0, limit)
	next := ""
	for msg, err := range l.ListSince(ctx, collaborationID, after) {
		if err != nil {
			return nil, "", err
		}
		if len(messages) == limit {
			next = PositionOf(messages[len(messages)-1]).Cursor()
			break
		}
		messages = append(messages, msg)
	}
	return messages, next, nil
}

// MarkRead stamps read_at on every unread message of the collaboration not
// sent by reader, system messages included. It is the only mutation a stored
// message ever receives.
func (l *Log) MarkRead(ctx context.Context, collaborationID, readerUserID uuid.UUID) (int64, error) {
	at := l.clock().UTC().Truncate(time.Microsecond)
	n, err := l.store.MarkMessagesRead(ctx, collaborationID, readerUserID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return n, nil
}
