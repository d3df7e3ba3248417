// Package sync runs one fetch-archive-render pass over the user's
// recently-played history.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-recently-played/internal/archive"
	"github.com/justestif/go-spotify-recently-played/internal/config"
	"github.com/justestif/go-spotify-recently-played/internal/history"
	"github.com/justestif/go-spotify-recently-played/internal/render"
	"github.com/justestif/go-spotify-recently-played/internal/spotify"
	"github.com/justestif/go-spotify-recently-played/internal/store"
)

// Common errors.
var (
	// ErrTokenExchange wraps failures to obtain an access token.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrFetch wraps failures of the recently-played request.
	ErrFetch = errors.New("fetching recently played failed")
)

// TokenSource exchanges stored credentials for an access token.
type TokenSource interface {
	Exchange(ctx context.Context) (string, error)
}

// HistoryFetcher fetches one page of recently-played history.
type HistoryFetcher interface {
	RecentlyPlayed(ctx context.Context, accessToken string, limit int, after string) (*spotify.RecentlyPlayed, error)
}

// Service runs the pipeline. It is not safe for concurrent use, and two
// processes must not share the same files.
type Service struct {
	tokens   TokenSource
	history  HistoryFetcher
	cursor   *store.CursorStore
	archiver *archive.Archiver
	renderer *render.Renderer

	limit       int
	mode        config.RenderMode
	trimArchive bool
	runID       uuid.UUID
	logger      zerolog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLimit sets the page size requested from Spotify.
func WithLimit(n int) Option {
	return func(s *Service) {
		s.limit = n
	}
}

// WithRenderMode selects per-date or combined rendering.
func WithRenderMode(m config.RenderMode) Option {
	return func(s *Service) {
		s.mode = m
	}
}

// WithTrimArchive makes per-date rendering rewrite each rendered date's
// archive to hold only the rendered plays. Older plays of that date are
// dropped from storage.
func WithTrimArchive(trim bool) Option {
	return func(s *Service) {
		s.trimArchive = trim
	}
}

// WithRunID sets the id reported in the run's Result.
func WithRunID(id uuid.UUID) Option {
	return func(s *Service) {
		s.runID = id
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new sync service.
func New(tokens TokenSource, fetcher HistoryFetcher, cursor *store.CursorStore, archiver *archive.Archiver, renderer *render.Renderer, opts ...Option) *Service {
	s := &Service{
		tokens:   tokens,
		history:  fetcher,
		cursor:   cursor,
		archiver: archiver,
		renderer: renderer,
		limit:    spotify.MaxLimit,
		mode:     config.RenderPerDate,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == uuid.Nil {
		s.runID = uuid.New()
	}
	return s
}

// DateError records a date whose rendering failed.
type DateError struct {
	Date string
	Err  error
}

func (e DateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Date, e.Err)
}

func (e DateError) Unwrap() error {
	return e.Err
}

// Result describes what a run did.
type Result struct {
	RunID   uuid.UUID
	Fetched int

	// Archived lists dates in processing order. Rendered lists the dates
	// whose table reached the output file.
	Archived []string
	Rendered []string
	Failures []DateError

	// Cursor is what the next run resumes from.
	Cursor      string
	CursorSaved bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Run performs one pass: exchange the refresh token, fetch plays after the
// stored cursor, append them to their date archives, render the output
// file and store the new cursor.
//
// Token, fetch, archive and cursor failures abort the run and are returned.
// Rendering failures are logged, recorded in Result.Failures and skipped.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: s.runID, StartedAt: s.now()}

	token, err := s.tokens.Exchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}

	after, err := s.cursor.Load()
	if err != nil {
		return nil, err
	}
	res.Cursor = after
	s.logger.Debug().Str("after", after).Msg("Loaded cursor")

	page, err := s.history.RecentlyPlayed(ctx, token, s.limit, after)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	res.Fetched = len(page.Items)
	if res.Fetched == 0 {
		s.logger.Info().Msg("No new items")
		res.FinishedAt = s.now()
		return res, nil
	}
	s.logger.Info().Int("count", res.Fetched).Msg("Fetched recently played")

	groups := history.Partition(page.Items)
	for _, g := range groups {
		arc, err := s.archiver.Append(g.Date, g.Events)
		if err != nil {
			return nil, fmt.Errorf("archiving %s: %w", g.Date, err)
		}
		res.Archived = append(res.Archived, g.Date)
		s.logger.Info().
			Str("date", g.Date).
			Int("added", len(g.Events)).
			Int("total", len(arc.Items)).
			Msg("Archived plays")

		if s.mode == config.RenderPerDate {
			s.renderDate(g.Date, res)
		}
	}

	if s.mode == config.RenderCombined {
		s.renderCombined(history.Dates(groups), res)
	}

	saved, err := s.cursor.Save(page.After())
	if err != nil {
		return nil, err
	}
	if saved {
		res.Cursor = page.After()
		res.CursorSaved = true
	}
	s.logger.Debug().Str("after", res.Cursor).Bool("saved", saved).Msg("Stored cursor")

	res.FinishedAt = s.now()
	return res, nil
}

// renderDate re-reads the archive for date and overwrites the output file
// with its most recent plays.
func (s *Service) renderDate(date string, res *Result) {
	arc, err := s.archiver.Load(date)
	if err != nil {
		s.fail(date, err, res)
		return
	}

	rows, err := s.renderer.Publish(arc.Items)
	if err != nil {
		s.fail(date, err, res)
		return
	}
	res.Rendered = append(res.Rendered, date)
	s.logger.Info().Str("date", date).Int("rows", len(rows)).Str("output", s.renderer.Output()).Msg("Rendered table")

	if !s.trimArchive {
		return
	}

	// rows are most recent first; the archive stays oldest first.
	kept := render.Recent(rows, len(rows))
	if err := s.archiver.Replace(date, kept); err != nil {
		s.logger.Error().Err(err).Str("date", date).Msg("Failed to trim archive")
		res.Failures = append(res.Failures, DateError{Date: date, Err: err})
		return
	}
	if dropped := len(arc.Items) - len(kept); dropped > 0 {
		s.logger.Warn().Str("date", date).Int("dropped", dropped).Msg("Trimmed archive")
	}
}

// renderCombined renders the most recent plays across every archived date
// of the run in a single write.
func (s *Service) renderCombined(dates []string, res *Result) {
	if s.trimArchive {
		s.logger.Warn().Msg("trim_archive only applies to per-date rendering; archives left intact")
	}

	var events []spotify.PlayEvent
	var loaded []string
	for _, date := range dates {
		arc, err := s.archiver.Load(date)
		if err != nil {
			s.fail(date, err, res)
			continue
		}
		events = append(events, arc.Items...)
		loaded = append(loaded, date)
	}
	if len(loaded) == 0 {
		return
	}

	rows, err := s.renderer.Publish(history.Sort(events))
	if err != nil {
		for _, date := range loaded {
			s.fail(date, err, res)
		}
		return
	}
	res.Rendered = append(res.Rendered, loaded...)
	s.logger.Info().Strs("dates", loaded).Int("rows", len(rows)).Str("output", s.renderer.Output()).Msg("Rendered table")
}

func (s *Service) fail(date string, err error, res *Result) {
	s.logger.Error().Err(err).Str("date", date).Msg("Failed to render date")
	res.Failures = append(res.Failures, DateError{Date: date, Err: err})
}
