package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/services"
	"github.com/madc0w/playlister/internal/shared"
)

// DefaultConcurrency bounds parallel track resolution.
const DefaultConcurrency = 4

// MaterializeRequest is one playlist to create.
type MaterializeRequest struct {
	Title       string
	Description string
	Tracks      []models.TrackRequest
	Progress    chan<- ProgressUpdate // optional
}

// Validate checks the request before any remote call is made.
func (r MaterializeRequest) Validate() error {
	if len(r.Tracks) == 0 {
		return fmt.Errorf("%w: valid playlist array is required", shared.ErrBadRequest)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: playlist title is required", shared.ErrBadRequest)
	}
	return nil
}

// MaterializerOptions tunes a [Materializer].
type MaterializerOptions struct {
	Privacy        string // public, private or unlisted; empty means public
	Concurrency    int
	DurationFilter bool
	MaxDuration    time.Duration
	ReportQuota    bool
}

// MaterializerOptionsFromConfig maps configuration onto [MaterializerOptions].
func MaterializerOptionsFromConfig(cfg *shared.Config) MaterializerOptions {
	return MaterializerOptions{
		Privacy:        cfg.YouTube.Privacy,
		Concurrency:    cfg.YouTube.Concurrency,
		DurationFilter: cfg.YouTube.DurationFilter,
		MaxDuration:    cfg.YouTube.MaxDuration.Duration,
		ReportQuota:    cfg.Quota.Report,
	}
}

// Materializer turns a track list into a YouTube playlist.
type Materializer struct {
	refresher *TokenRefresher
	factory   services.VideoClientFactory
	runs      models.RunStore
	opts      MaterializerOptions
	logger    *log.Logger
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewMaterializer creates a materializer. runs may be nil to skip history.
func NewMaterializer(refresher *TokenRefresher, factory services.VideoClientFactory, runs models.RunStore, opts MaterializerOptions, logger *log.Logger) *Materializer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Privacy == "" {
		opts.Privacy = "public"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Materializer{
		refresher: refresher,
		factory:   factory,
		runs:      runs,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
}

// DefaultDescription is used when the caller leaves the description empty.
func DefaultDescription(now time.Time) string {
	return "Playlist created by Playlister - " + now.Format("1/2/2006")
}

// acquire marks key as running; it fails when a materialization for key is already in flight.
func (m *Materializer) acquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[key]; busy {
		return false
	}
	m.inflight[key] = struct{}{}
	return true
}

func (m *Materializer) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, key)
}

// outcome is the resolution of the track at the same input index.
type outcome struct {
	videoID string
	reason  string
}

// Materialize creates the playlist, resolves and inserts every track, and reports per-track outcomes.
//
// Request-level failures wrap one of [shared.ErrUnauthorized], [shared.ErrBadRequest],
// [shared.ErrAuthExpired], [shared.ErrConflict], [shared.ErrRateLimited] or [shared.ErrInternal];
// no result is returned with them.
func (m *Materializer) Materialize(ctx context.Context, session *models.Session, req MaterializeRequest) (*models.PlaylistResult, error) {
	if !session.Authenticated() {
		return nil, fmt.Errorf("%w: sign in with Google first", shared.ErrUnauthorized)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := session.ID
	if key == "" {
		key = session.User.Email
	}
	if !m.acquire(key) {
		return nil, fmt.Errorf("%w: a playlist is already being created for this session", shared.ErrConflict)
	}
	defer m.release(key)

	logger := shared.WithLogger(m.logger, "session", session.ID, "title", req.Title)
	progress := req.Progress

	sendProgress(progress, refreshUpdate())
	fresh, err := m.refresher.EnsureFresh(ctx, session)
	if err != nil {
		return nil, err
	}

	client, err := m.factory.New(ctx, fresh.Token())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInternal, err)
	}

	ledger := NewQuotaLedger()

	description := req.Description
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription(m.now())
	}

	sendProgress(progress, createPlaylistUpdate(req.Title))
	ledger.Charge(OpPlaylistsInsert)
	playlistID, err := client.CreatePlaylist(ctx, req.Title, description, m.opts.Privacy)
	if err != nil {
		logger.Error("playlist creation failed", "error", err)
		if services.IsAuthError(err) || services.IsQuotaError(err) {
			return nil, classify(err)
		}
		return nil, fmt.Errorf("%w: failed to create playlist: %v", shared.ErrInternal, err)
	}
	sendProgress(progress, createdPlaylistUpdate(req.Title, playlistID))
	logger = shared.WithLogger(logger, "playlist", playlistID)

	outcomes, err := m.resolveAll(ctx, client, ledger, req.Tracks, progress)
	if err != nil {
		logger.Error("track resolution aborted", "error", err)
		return nil, classify(err)
	}

	result := &models.PlaylistResult{
		PlaylistID:  playlistID,
		PlaylistURL: models.PlaylistURL(playlistID),
		Title:       req.Title,
		Added:       []models.ResolvedTrack{},
		Failed:      []models.FailedTrack{},
	}

	total := len(req.Tracks)
	for i, t := range req.Tracks {
		o := outcomes[i]
		if o.reason != "" {
			result.Failed = append(result.Failed, models.FailedTrack{TrackRequest: t, Reason: o.reason})
			continue
		}

		ledger.Charge(OpPlaylistItemInsert)
		err := client.InsertPlaylistItem(ctx, playlistID, o.videoID)
		sendProgress(progress, insertUpdate(i+1, total, t, err))
		if err != nil {
			if fatal := fatalError(ctx, err); fatal != nil {
				logger.Error("insert aborted", "error", fatal)
				return nil, classify(fatal)
			}
			logger.Warn("insert failed", "track", t.String(), "video", o.videoID, "error", err)
			result.Failed = append(result.Failed, models.FailedTrack{TrackRequest: t, Reason: models.ReasonInsertFailed})
			continue
		}
		result.Added = append(result.Added, models.ResolvedTrack{TrackRequest: t, VideoID: o.videoID})
	}

	result.Stats = models.PlaylistStats{Total: total, Added: len(result.Added), Failed: len(result.Failed)}
	summary := ledger.Summary()
	if m.opts.ReportQuota {
		result.Quota = summary
	}

	logger.Info("playlist materialized", "total", total, "added", result.Stats.Added, "failed", result.Stats.Failed, "quota", summary.TotalCost)

	if m.runs != nil {
		run := models.NewRun(fresh, result)
		run.QuotaCost = summary.TotalCost
		if err := m.runs.Create(ctx, run); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}

	sendProgress(progress, completeUpdate(result))
	return result, nil
}

// resolveAll resolves every track with bounded concurrency. outcomes[i] belongs to tracks[i].
// The first fatal error cancels the remaining resolutions.
func (m *Materializer) resolveAll(ctx context.Context, client services.VideoClient, ledger *QuotaLedger, tracks []models.TrackRequest, progress chan<- ProgressUpdate) ([]outcome, error) {
	resolver := NewTrackResolver(client, ledger, ResolverOptions{
		DurationFilter: m.opts.DurationFilter,
		MaxDuration:    m.opts.MaxDuration,
	})

	outcomes := make([]outcome, len(tracks))
	total := len(tracks)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)

	for i, t := range tracks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Nothing to search for; the track still counts toward the total.
			if t.Validate() != nil {
				outcomes[i] = outcome{reason: models.ReasonNotFound}
				sendProgress(progress, resolveUpdate(int(done.Add(1)), total, t, models.ReasonNotFound))
				return nil
			}
			id, reason, err := resolver.Resolve(gctx, t)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{videoID: id, reason: reason}
			sendProgress(progress, resolveUpdate(int(done.Add(1)), total, t, reason))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// classify maps a fatal remote error to a request-level sentinel.
func classify(err error) error {
	if services.IsAuthError(err) {
		return fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
	}
	if services.IsQuotaError(err) {
		return fmt.Errorf("%w: YouTube quota exhausted: %v", shared.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrInternal, err)
}
