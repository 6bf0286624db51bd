package usecases

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

const DefaultPageSize = 10

// PlayInput contains the input for the Play use case.
type PlayInput struct {
	GuildID snowflake.ID
	Query   string
	// Connect opens the output sink if the guild has no session yet.
	Connect ports.SinkConnector
}

// PlayOutput contains the result of the Play use case.
type PlayOutput struct {
	Query domain.Query
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID snowflake.ID
	Count   int
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped int
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID snowflake.ID
}

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID snowflake.ID
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID snowflake.ID
}

// ShuffleInput contains the input for the Shuffle use case.
type ShuffleInput struct {
	GuildID snowflake.ID
}

// RemoveInput contains the input for the Remove use case.
type RemoveInput struct {
	GuildID  snowflake.ID
	Position int // 1-indexed position among upcoming items
}

// RemoveOutput contains the result of the Remove use case.
type RemoveOutput struct {
	Title string
}

// ClearInput contains the input for the Clear use case.
type ClearInput struct {
	GuildID snowflake.ID
}

// ClearOutput contains the result of the Clear use case.
type ClearOutput struct {
	Cleared int
}

// QueueStateInput contains the input for the QueueState use case.
type QueueStateInput struct {
	GuildID  snowflake.ID
	Page     int // 1-indexed page number
	PageSize int // Items per page (optional, defaults to 10)
}

// QueueStateOutput contains the result of the QueueState use case.
type QueueStateOutput struct {
	Current  string // empty if nothing is queued
	Paused   bool
	Upcoming []string
	// Offset is the 0-based index of Upcoming[0] among all upcoming items.
	Offset        int
	TotalUpcoming int
	CurrentPage   int
	TotalPages    int
}

// PlayerService is the entry point for every playback command.
type PlayerService struct {
	registry *SessionRegistry
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(registry *SessionRegistry) *PlayerService {
	return &PlayerService{
		registry: registry,
	}
}

// Play gets or creates the guild's session and hands it the query.
// It returns as soon as the query is queued for resolution.
func (p *PlayerService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	query := domain.ParseQuery(input.Query)
	if !query.IsValid() {
		return nil, ErrEmptyQuery
	}

	// A session stopped between lookup and enqueue is replaced once.
	var err error
	for range 2 {
		var s *Session
		s, err = p.registry.GetOrCreate(ctx, input.GuildID, input.Connect)
		if err != nil {
			return nil, err
		}

		err = s.Enqueue(ctx, query.Raw)
		if !errors.Is(err, ErrSessionClosed) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return &PlayOutput{Query: query}, nil
}

// Skip skips up to input.Count items, the current one included.
func (p *PlayerService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	s, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}

	skipped, err := s.Skip(ctx, input.Count)
	if err != nil {
		return nil, err
	}
	return &SkipOutput{Skipped: skipped}, nil
}

// Stop stops playback and tears the guild's session down.
func (p *PlayerService) Stop(ctx context.Context, input StopInput) error {
	s, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	if err := s.Stop(ctx); err != nil {
		if errors.Is(err, ErrSessionClosed) {
			return ErrNotConnected
		}
		return err
	}
	return nil
}

// Pause pauses playback.
func (p *PlayerService) Pause(ctx context.Context, input PauseInput) error {
	s, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return s.Pause(ctx)
}

// Resume resumes playback.
func (p *PlayerService) Resume(ctx context.Context, input ResumeInput) error {
	s, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return s.Resume(ctx)
}

// Shuffle shuffles the upcoming items.
func (p *PlayerService) Shuffle(ctx context.Context, input ShuffleInput) error {
	s, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return s.Shuffle(ctx)
}

// Remove removes an upcoming item by its 1-based position.
func (p *PlayerService) Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error) {
	s, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}

	title, err := s.Remove(ctx, input.Position)
	if err != nil {
		return nil, err
	}
	return &RemoveOutput{Title: title}, nil
}

// Clear empties the queue and drops unresolved queries.
func (p *PlayerService) Clear(ctx context.Context, input ClearInput) (*ClearOutput, error) {
	s, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}

	cleared, err := s.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return &ClearOutput{Cleared: cleared}, nil
}

// QueueState returns the current title and one page of upcoming titles.
func (p *PlayerService) QueueState(
	ctx context.Context,
	input QueueStateInput,
) (*QueueStateOutput, error) {
	s, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(snapshot.Upcoming)
	totalPages := max((total+pageSize-1)/pageSize, 1)
	page := min(max(input.Page, 1), totalPages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	upcoming := []string{}
	if start < total {
		upcoming = snapshot.Upcoming[start:end]
	}

	return &QueueStateOutput{
		Current:       snapshot.Current,
		Paused:        snapshot.Paused,
		Upcoming:      upcoming,
		Offset:        start,
		TotalUpcoming: total,
		CurrentPage:   page,
		TotalPages:    totalPages,
	}, nil
}

func (p *PlayerService) session(guildID snowflake.ID) (*Session, error) {
	s, ok := p.registry.Get(guildID)
	if !ok {
		return nil, ErrNotConnected
	}
	return s, nil
}
