// Package assistant serves the health chatbot. Conversation state is held by
// the client and sent back with every message; nothing is stored.
package assistant

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/platform/ai"
	"github.com/23f2004399/hms-tool/internal/platform/validate"
)

type Service struct {
	ai        ai.Client
	validator *validate.Validator
	logger    zerolog.Logger
}

func NewService(client ai.Client, logger zerolog.Logger) *Service {
	return &Service{
		ai:        client,
		validator: validate.New(),
		logger:    logger.With().Str("component", "assistant").Logger(),
	}
}

func (s *Service) Chat(ctx context.Context, userID string, req ChatRequest) (*ChatReply, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	reply, err := s.ai.Chat(ctx, req.Message, req.History)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Int("history", len(req.History)).Msg("chat failed")
		return nil, err
	}
	s.logger.Debug().Str("user_id", userID).Int("history", len(req.History)).Msg("chat answered")
	return &ChatReply{Reply: reply, Model: s.ai.Model()}, nil
}
