package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMessage  = errors.New("invalid message")
)

const (
	defaultTitle  = "New Chat"
	titleMaxRunes = 50

	// column widths in models.go
	sessionIDMaxRunes = 64
	titleColumnRunes  = 255
)

type Repo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

// DeriveTitle uses the first user message, cut to 50 runes plus "...".
func DeriveTitle(msgs []ChatMessage) string {
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		if m.Content == "" {
			return defaultTitle
		}
		if utf8.RuneCountInString(m.Content) > titleMaxRunes {
			return string([]rune(m.Content)[:titleMaxRunes]) + "..."
		}
		return m.Content
	}
	return defaultTitle
}

// Save replaces the stored session and all of its messages. created_at
// survives repeated saves so saving the same input twice loads the same.
func (r *Repo) Save(ctx context.Context, id string, msgs []ChatMessage, title string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidMessage)
	}
	if utf8.RuneCountInString(id) > sessionIDMaxRunes {
		return fmt.Errorf("%w: session id longer than %d characters", ErrInvalidMessage, sessionIDMaxRunes)
	}
	for i, m := range msgs {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidMessage, i, m.Role)
		}
	}
	if strings.TrimSpace(title) == "" {
		title = DeriveTitle(msgs)
	}
	if utf8.RuneCountInString(title) > titleColumnRunes {
		title = string([]rune(title)[:titleColumnRunes])
	}

	now := r.now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess := Session{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
		}).Create(&sess).Error; err != nil {
			return err
		}

		if err := tx.Where("session_id = ?", id).Delete(&Message{}).Error; err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}

		rows := make([]Message, 0, len(msgs))
		for i, m := range msgs {
			rows = append(rows, Message{
				SessionID: id,
				Seq:       i,
				Role:      m.Role,
				Content:   m.Content,
				Chart:     toJSON(m.Chart),
				Image:     toJSON(m.Image),
				CreatedAt: now,
			})
		}
		return tx.Create(&rows).Error
	})
}

func (r *Repo) Load(ctx context.Context, id string) (*SessionView, error) {
	var s Session
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var rows []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	view := &SessionView{
		Messages:  make([]ChatMessage, 0, len(rows)),
		Title:     s.Title,
		Timestamp: s.CreatedAt,
	}
	for _, m := range rows {
		view.Messages = append(view.Messages, ChatMessage{
			Role:    m.Role,
			Content: m.Content,
			Chart:   fromJSON(m.Chart),
			Image:   fromJSON(m.Image),
		})
	}
	return view, nil
}

// Recent returns up to limit of the newest messages of a session, oldest
// first. A missing session yields no messages.
func (r *Repo) Recent(ctx context.Context, id string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		Order("seq DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ChatMessage, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, ChatMessage{Role: rows[i].Role, Content: rows[i].Content})
	}
	return out, nil
}

func (r *Repo) List(ctx context.Context) (History, error) {
	var sessions []Session
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Order("id ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}

	out := make(History, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, HistoryEntry{SessionID: s.ID, Title: s.Title, Timestamp: s.UpdatedAt})
	}
	return out, nil
}

// Delete removes a session and its messages. Unknown ids are not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Session{}).Error
	})
}

func toJSON(raw json.RawMessage) datatypes.JSON {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return datatypes.JSON(raw)
}

func fromJSON(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 || string(j) == "null" {
		return nil
	}
	return json.RawMessage(j)
}
