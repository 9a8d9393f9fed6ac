package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/madc0w/playlister/internal/models"
	tu "github.com/madc0w/playlister/internal/testing"
)

func TestParseISODuration(t *testing.T) {
	tc := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{in: "PT4M13S", want: 4*time.Minute + 13*time.Second, ok: true},
		{in: "PT1H2M3S", want: time.Hour + 2*time.Minute + 3*time.Second, ok: true},
		{in: "PT45S", want: 45 * time.Second, ok: true},
		{in: "PT12M", want: 12 * time.Minute, ok: true},
		{in: "PT2H", want: 2 * time.Hour, ok: true},
		{in: "PT", ok: false},
		{in: "", ok: false},
		{in: "P1DT2H", ok: false},
		{in: "4:13", ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseISODuration(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseISODuration(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTrackResolver(t *testing.T) {
	ctx := context.Background()
	track := models.TrackRequest{Name: "So What", Artist: "Miles Davis"}

	t.Run("Found", func(t *testing.T) {
		yt := tu.NewFakeYouTube()
		yt.Videos[track.Query()] = "vid1"
		ledger := NewQuotaLedger()

		id, reason, err := NewTrackResolver(yt, ledger, ResolverOptions{}).Resolve(ctx, track)
		if err != nil || reason != "" || id != "vid1" {
			t.Errorf("unexpected result %q %q %v", id, reason, err)
		}
		if yt.Searches[0] != "So What Miles Davis" {
			t.Errorf("unexpected query %q", yt.Searches[0])
		}
		if ledger.Calls(OpSearch) != 1 || ledger.Calls(OpVideosList) != 0 {
			t.Errorf("unexpected quota calls: search=%d videos=%d", ledger.Calls(OpSearch), ledger.Calls(OpVideosList))
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		yt := tu.NewFakeYouTube()

		id, reason, err := NewTrackResolver(yt, nil, ResolverOptions{}).Resolve(ctx, track)
		if err != nil || id != "" || reason != models.ReasonNotFound {
			t.Errorf("unexpected result %q %q %v", id, reason, err)
		}
	})

	t.Run("Search Failure Is Recorded", func(t *testing.T) {
		yt := tu.NewFakeYouTube()
		yt.SearchErrors[track.Query()] = &googleapi.Error{Code: 500}

		_, reason, err := NewTrackResolver(yt, nil, ResolverOptions{}).Resolve(ctx, track)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if reason != models.ReasonSearchFailed {
			t.Errorf("expected search failed, got %q", reason)
		}
	})

	t.Run("Auth Failure Propagates", func(t *testing.T) {
		yt := tu.NewFakeYouTube()
		yt.SearchErrors[track.Query()] = &googleapi.Error{Code: 401}

		_, _, err := NewTrackResolver(yt, nil, ResolverOptions{}).Resolve(ctx, track)
		var apiErr *googleapi.Error
		if !errors.As(err, &apiErr) {
			t.Errorf("expected auth error, got %v", err)
		}
	})

	t.Run("Duration Filter", func(t *testing.T) {
		tc := []struct {
			name     string
			duration string
			reason   string
		}{
			{name: "short", duration: "PT4M13S", reason: ""},
			{name: "just under", duration: "PT11M59S", reason: ""},
			{name: "exactly limit", duration: "PT12M", reason: models.ReasonDurationRange},
			{name: "long mix", duration: "PT1H2M", reason: models.ReasonDurationRange},
			{name: "unparsable", duration: "garbage", reason: models.ReasonDurationRange},
			{name: "absent", duration: "", reason: models.ReasonDurationRange},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				yt := tu.NewFakeYouTube()
				yt.Videos[track.Query()] = "vid1"
				if tt.duration != "" {
					yt.Durations["vid1"] = tt.duration
				}
				ledger := NewQuotaLedger()

				_, reason, err := NewTrackResolver(yt, ledger, ResolverOptions{DurationFilter: true}).Resolve(ctx, track)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if reason != tt.reason {
					t.Errorf("expected reason %q, got %q", tt.reason, reason)
				}
				if ledger.Calls(OpVideosList) != 1 {
					t.Errorf("expected one videos.list call, got %d", ledger.Calls(OpVideosList))
				}
			})
		}
	})

	t.Run("Duration Lookup Failure", func(t *testing.T) {
		yt := tu.NewFakeYouTube()
		yt.Videos[track.Query()] = "vid1"
		yt.DurationsErr = errors.New("backend error")

		_, reason, err := NewTrackResolver(yt, nil, ResolverOptions{DurationFilter: true}).Resolve(ctx, track)
		if err != nil || reason != models.ReasonDurationRange {
			t.Errorf("unexpected result %q %v", reason, err)
		}
	})

	t.Run("Custom Max Duration", func(t *testing.T) {
		yt := tu.NewFakeYouTube()
		yt.Videos[track.Query()] = "vid1"
		yt.Durations["vid1"] = "PT5M"

		_, reason, _ := NewTrackResolver(yt, nil, ResolverOptions{DurationFilter: true, MaxDuration: 3 * time.Minute}).Resolve(ctx, track)
		if reason != models.ReasonDurationRange {
			t.Errorf("expected duration out of range, got %q", reason)
		}
	})
}

func TestQuotaLedger(t *testing.T) {
	ledger := NewQuotaLedger()
	for range 3 {
		ledger.Charge(OpSearch)
	}
	ledger.Charge(OpPlaylistsInsert)
	ledger.Charge(OpPlaylistItemInsert)
	ledger.Charge(OpVideosList)

	summary := ledger.Summary()
	if summary.Operations[OpSearch].Calls != 3 || summary.Operations[OpSearch].Cost != 300 {
		t.Errorf("unexpected search entry %+v", summary.Operations[OpSearch])
	}
	if summary.TotalCost != 300+50+50+1 {
		t.Errorf("unexpected total cost %d", summary.TotalCost)
	}

	var nilLedger *QuotaLedger
	nilLedger.Charge(OpSearch)
}
