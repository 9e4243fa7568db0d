package models

// OutboundMessageRequest represents requests to send a message manually via the API.
// An empty To falls back to the configured recipient.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
