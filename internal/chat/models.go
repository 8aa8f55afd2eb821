package chat

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"session_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (Session) TableName() string { return "chat_sessions" }

type Message struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string         `gorm:"type:varchar(64);not null;index:idx_chat_msg_session_seq,priority:1" json:"session_id"`
	Seq       int            `gorm:"not null;index:idx_chat_msg_session_seq,priority:2" json:"seq"`
	Role      string         `gorm:"type:varchar(16);not null" json:"role"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Chart     datatypes.JSON `json:"chart,omitempty"`
	Image     datatypes.JSON `json:"image,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// ChatMessage is a message as the client sends and receives it. Chart and
// image attachments are opaque JSON.
type ChatMessage struct {
	Role    string          `json:"role"`
	Content string          `json:"content"`
	Chart   json.RawMessage `json:"chart,omitempty"`
	Image   json.RawMessage `json:"image,omitempty"`
}

type SessionView struct {
	Messages  []ChatMessage `json:"messages"`
	Title     string        `json:"title"`
	Timestamp time.Time     `json:"timestamp"`
}
