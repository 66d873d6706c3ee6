package model

import "strings"

type Agent struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Instructions     string     `json:"instructions"`
	BaseModel        string     `json:"base_model"`
	IsPrivate        bool       `json:"is_private"`
	KnowledgeBaseIDs []string   `json:"knowledge_base_ids"`
	CreatedAt        *Timestamp `json:"created_at,omitempty"`
	UpdatedAt        *Timestamp `json:"updated_at,omitempty"`
}

type AgentParams struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Instructions     string   `json:"instructions"`
	BaseModel        string   `json:"base_model"`
	IsPrivate        bool     `json:"is_private"`
	KnowledgeBaseIDs []string `json:"knowledge_base_ids"`
}

// Missing returns the first required field that is empty, or "".
func (p AgentParams) Missing() string {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return "name"
	case strings.TrimSpace(p.BaseModel) == "":
		return "base_model"
	}
	return ""
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description,omitempty"`
}
