package assistant

import "github.com/23f2004399/hms-tool/internal/platform/ai"

// ChatRequest is one user message plus the turns the client has kept.
type ChatRequest struct {
	Message string       `json:"message" validate:"required,max=4000"`
	History []ai.Message `json:"history" validate:"max=40,dive"`
}

type ChatReply struct {
	Reply string `json:"reply"`
	Model string `json:"model,omitempty"`
}
