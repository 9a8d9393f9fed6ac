package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// FakeYouTube is an in-memory stand-in for the YouTube Data API.
//
// Searches resolve through Videos (query -> video id); a missing query is
// "no result". Errors can be injected per query or per video id.
type FakeYouTube struct {
	mu sync.Mutex

	Videos       map[string]string // query -> video id
	Durations    map[string]string // video id -> ISO-8601 duration
	SearchErrors map[string]error  // query -> error
	InsertErrors map[string]error  // video id -> error
	CreateErr    error
	DurationsErr error
	PlaylistID   string
	SearchDelay  time.Duration

	Searches []string
	Inserted []string
	Created  []CreatedPlaylist
	Listed   int
	Tokens   []string
}

// CreatedPlaylist records a CreatePlaylist call.
type CreatedPlaylist struct {
	Title       string
	Description string
	Privacy     string
}

func NewFakeYouTube() *FakeYouTube {
	return &FakeYouTube{
		Videos:       make(map[string]string),
		Durations:    make(map[string]string),
		SearchErrors: make(map[string]error),
		InsertErrors: make(map[string]error),
		PlaylistID:   "PLfake123",
	}
}

// New lets FakeYouTube act as its own client factory.
func (f *FakeYouTube) New(ctx context.Context, tok *oauth2.Token) (*FakeYouTube, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tokens = append(f.Tokens, tok.AccessToken)
	return f, nil
}

func (f *FakeYouTube) SearchVideo(ctx context.Context, query string) (string, error) {
	if f.SearchDelay > 0 {
		select {
		case <-time.After(f.SearchDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, query)

	if err, ok := f.SearchErrors[query]; ok {
		return "", err
	}
	return f.Videos[query], nil
}

func (f *FakeYouTube) VideoDurations(ctx context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Listed++

	if f.DurationsErr != nil {
		return nil, f.DurationsErr
	}
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if d, ok := f.Durations[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (f *FakeYouTube) CreatePlaylist(ctx context.Context, title, description, privacy string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, CreatedPlaylist{Title: title, Description: description, Privacy: privacy})

	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	return f.PlaylistID, nil
}

func (f *FakeYouTube) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.InsertErrors[videoID]; ok {
		return err
	}
	f.Inserted = append(f.Inserted, videoID)
	return nil
}

// SearchCount returns the number of searches made so far.
func (f *FakeYouTube) SearchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Searches)
}

// FakeCompletion returns a canned reply and records prompts.
type FakeCompletion struct {
	Reply   string
	Err     error
	Systems []string
	Prompts []string
}

func (f *FakeCompletion) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.Systems = append(f.Systems, system)
	f.Prompts = append(f.Prompts, prompt)
	return f.Reply, f.Err
}

// FakeExchanger counts refresh exchanges and returns Token or Err.
type FakeExchanger struct {
	mu    sync.Mutex
	Token *oauth2.Token
	Err   error
	Calls []string
}

func (f *FakeExchanger) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, refreshToken)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Token == nil {
		return nil, fmt.Errorf("no token configured")
	}
	tok := *f.Token
	return &tok, nil
}

// CallCount returns the number of Refresh calls.
func (f *FakeExchanger) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// CreateCount returns the number of CreatePlaylist calls.
func (f *FakeYouTube) CreateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Created)
}
