package tasks

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/services"
)

// DefaultMaxDuration excludes long mixes and full-album uploads.
const DefaultMaxDuration = 12 * time.Minute

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration parses the PT[n]H[n]M[n]S durations YouTube reports.
// Anything else, including a bare "PT", is rejected.
func ParseISODuration(s string) (time.Duration, bool) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, false
	}

	var total time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		total += time.Duration(n) * unit
	}
	return total, true
}

// ResolverOptions configures a [TrackResolver].
type ResolverOptions struct {
	DurationFilter bool
	MaxDuration    time.Duration // zero uses DefaultMaxDuration
}

// TrackResolver maps one track to at most one YouTube video.
type TrackResolver struct {
	client services.VideoClient
	ledger *QuotaLedger
	opts   ResolverOptions
}

func NewTrackResolver(client services.VideoClient, ledger *QuotaLedger, opts ResolverOptions) *TrackResolver {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	return &TrackResolver{client: client, ledger: ledger, opts: opts}
}

// Resolve returns a video id, or a failure reason from the models.Reason* codes.
//
// err is only non-nil for authentication failures and cancellation; every
// other problem is reported through reason.
func (r *TrackResolver) Resolve(ctx context.Context, t models.TrackRequest) (videoID, reason string, err error) {
	r.ledger.Charge(OpSearch)
	id, err := r.client.SearchVideo(ctx, t.Query())
	if err != nil {
		if fatal := fatalError(ctx, err); fatal != nil {
			return "", "", fatal
		}
		return "", models.ReasonSearchFailed, nil
	}
	if id == "" {
		return "", models.ReasonNotFound, nil
	}

	if !r.opts.DurationFilter {
		return id, "", nil
	}

	r.ledger.Charge(OpVideosList)
	durations, err := r.client.VideoDurations(ctx, []string{id})
	if err != nil {
		if fatal := fatalError(ctx, err); fatal != nil {
			return "", "", fatal
		}
		return "", models.ReasonDurationRange, nil
	}

	d, ok := ParseISODuration(durations[id])
	if !ok || d >= r.opts.MaxDuration {
		return "", models.ReasonDurationRange, nil
	}
	return id, "", nil
}

// fatalError returns err when it must abort the whole request.
func fatalError(ctx context.Context, err error) error {
	if services.IsAuthError(err) || services.IsQuotaError(err) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
