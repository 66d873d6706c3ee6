package model

import (
	"encoding/json"
	"strings"
)

const (
	SourceTypeFile        = "file"
	SourceTypeWebsite     = "website"
	SourceTypeNotion      = "notion"
	SourceTypeGoogleDrive = "google_drive"
	SourceTypeDatabase    = "database"
)

var SourceTypes = []string{
	SourceTypeFile, SourceTypeWebsite, SourceTypeNotion, SourceTypeGoogleDrive, SourceTypeDatabase,
}

type DataSource struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	SourceType         string          `json:"source_type"`
	ConnectionSettings json.RawMessage `json:"connection_settings,omitempty"`
	IsConnected        bool            `json:"is_connected"`
	RawSizeBytes       int64           `json:"raw_size_bytes"`
	DocumentCount      int             `json:"document_count"`
	LastSyncedAt       *Timestamp      `json:"last_synced_at,omitempty"`
}

type DataSourceParams struct {
	Name               string          `json:"name"`
	SourceType         string          `json:"source_type"`
	ConnectionSettings json.RawMessage `json:"connection_settings,omitempty"`
}

// Missing returns the first required field that is empty, or "".
func (p DataSourceParams) Missing() string {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return "name"
	case strings.TrimSpace(p.SourceType) == "":
		return "source_type"
	}
	return ""
}
