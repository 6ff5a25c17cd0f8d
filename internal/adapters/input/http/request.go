package http

type (
	// ChatRequest struct - HTTP request DTO for one chat message
	ChatRequest struct {
		Message        string `json:"message" validate:"required,notblank,max=4000"`
		ConversationID string `json:"conversationId" validate:"omitempty,max=64"`
		UserID         string `json:"userId" validate:"omitempty,max=128"`
	}

	// NewConversationRequest struct - HTTP query DTO for starting a conversation
	NewConversationRequest struct {
		UserID string `query:"userId" validate:"omitempty,max=128"`
	}

	// RelayAuditRequest struct - HTTP query DTO for the relay audit trail
	RelayAuditRequest struct {
		Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
	}

	// TriggerRequest struct - HTTP request DTO for the generic webhook trigger
	TriggerRequest struct {
		Name    string      `json:"name" validate:"required,max=255"`
		Email   string      `json:"email" validate:"required,email"`
		Message string      `json:"message" validate:"omitempty,max=4000"`
		Data    interface{} `json:"data,omitempty"`
	}
)
