// internal/auditlog/cursor.go
package auditlog

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

// Position orders messages within a collaboration: creation time first, then
// insertion order. The zero Position sorts before every message.
type Position struct {
	CreatedAt time.Time
	Seq       int64
}

func PositionOf(m models.Message) Position {
	return Position{CreatedAt: m.CreatedAt, Seq: m.Seq}
}

func (p Position) IsZero() bool {
	return p.Seq == 0 && p.CreatedAt.IsZero()
}

// Cursor encodes p as an opaque string for clients.
func (p Position) Cursor() string {
	if p.IsZero() {
		return ""
	}
	raw := fmt.Sprintf("%d:%d", p.CreatedAt.UnixNano(), p.Seq)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a cursor produced by Position.Cursor. The empty cursor
// is the start of the log.
func ParseCursor(cursor string) (Position, error) {
	if cursor == "" {
		return Position{}, nil
	}
	invalid := apperror.Validation("invalid cursor", apperror.FieldError{Field: "cursor", Message: "cursor is malformed"})

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return Position{}, invalid
	}
	nanos, seq, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Position{}, invalid
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return Position{}, invalid
	}
	s, err := strconv.ParseInt(seq, 10, 64)
	if err != nil || s < 0 {
		return Position{}, invalid
	}
	return Position{CreatedAt: time.Unix(0, n).UTC(), Seq: s}, nil
}
