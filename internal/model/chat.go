package model

import (
	"encoding/json"
	"time"
)

type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transcript is the stored conversation of one user with one agent.
type Transcript struct {
	ID        string          `db:"id" json:"id"`
	UserEmail string          `db:"user_email" json:"userEmail"`
	AgentID   string          `db:"agent_id" json:"agentId"`
	Messages  json.RawMessage `db:"messages" json:"messages"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

func (t *Transcript) DecodeMessages() ([]ChatMessage, error) {
	var msgs []ChatMessage
	if len(t.Messages) == 0 {
		return msgs, nil
	}
	if err := json.Unmarshal(t.Messages, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

type UpsertTranscriptParams struct {
	UserEmail string
	AgentID   string
	Messages  json.RawMessage
}
