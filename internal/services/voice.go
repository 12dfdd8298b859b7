package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
	"github.com/storyos/storyos-backend/internal/version"
)

type VoiceService interface {
	Create(ctx context.Context, voice *types.Voice) (*types.Voice, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Voice, error)
	List(ctx context.Context) ([]*types.Voice, error)
	Update(ctx context.Context, voice *types.Voice) (*types.Voice, error)
	Approve(ctx context.Context, id uuid.UUID) (*types.Voice, error)
}

type voiceService struct {
	log    *logger.Logger
	voices repos.VoiceRepo
}

func NewVoiceService(voices repos.VoiceRepo, baseLog *logger.Logger) VoiceService {
	return &voiceService{
		log:    baseLog.With("service", "VoiceService"),
		voices: voices,
	}
}

func (s *voiceService) Create(ctx context.Context, voice *types.Voice) (*types.Voice, error) {
	if strings.TrimSpace(voice.Name) == "" {
		return nil, fmt.Errorf("voice name is required")
	}
	if voice.Version == "" {
		voice.Version = "1.0"
	}
	if voice.Status == "" {
		voice.Status = types.VoiceStatusDraft
	}
	created, err := s.voices.Create(ctx, nil, []*types.Voice{voice})
	if err != nil {
		return nil, fmt.Errorf("create voice: %w", err)
	}
	return created[0], nil
}

func (s *voiceService) Get(ctx context.Context, id uuid.UUID) (*types.Voice, error) {
	voice, err := s.voices.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load voice: %w", err)
	}
	if voice == nil {
		return nil, fmt.Errorf("voice %s: %w", id, apperr.ErrNotFound)
	}
	return voice, nil
}

func (s *voiceService) List(ctx context.Context) ([]*types.Voice, error) {
	return s.voices.List(ctx, nil)
}

// Update edits a voice's configuration in place and bumps its version so
// deliverables snapshotting VoiceVersion can tell the render is stale.
func (s *voiceService) Update(ctx context.Context, voice *types.Voice) (*types.Voice, error) {
	current, err := s.Get(ctx, voice.ID)
	if err != nil {
		return nil, err
	}
	if current.Status == types.VoiceStatusArchived {
		return nil, &apperr.InvalidTransitionError{Entity: "voice", Op: "update", Status: string(current.Status)}
	}
	voice.Version = version.MinorBump(current.Version)
	if err := s.voices.Save(ctx, nil, voice); err != nil {
		return nil, fmt.Errorf("save voice: %w", err)
	}
	s.log.Info("voice updated", "id", voice.ID, "version", voice.Version)
	return voice, nil
}

func (s *voiceService) Approve(ctx context.Context, id uuid.UUID) (*types.Voice, error) {
	voice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if voice.Status != types.VoiceStatusDraft {
		return nil, &apperr.InvalidTransitionError{Entity: "voice", Op: "approve", Status: string(voice.Status)}
	}
	voice.Status = types.VoiceStatusApproved
	if err := s.voices.Save(ctx, nil, voice); err != nil {
		return nil, fmt.Errorf("save voice: %w", err)
	}
	return voice, nil
}
