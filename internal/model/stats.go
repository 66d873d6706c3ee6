package model

type UsageStats struct {
	RequestsToday      int   `json:"requests_today"`
	TokensToday        int64 `json:"tokens_today"`
	TotalConversations int   `json:"total_conversations"`
	TotalMessages      int   `json:"total_messages"`
}

type DashboardStats struct {
	TotalAgents          int        `json:"totalAgents"`
	PrivateAgents        int        `json:"privateAgents"`
	TotalDataSources     int        `json:"totalDataSources"`
	ConnectedDataSources int        `json:"connectedDataSources"`
	TotalDocuments       int        `json:"totalDocuments"`
	TotalRawSizeBytes    int64      `json:"totalRawSizeBytes"`
	Usage                UsageStats `json:"usage"`
}
