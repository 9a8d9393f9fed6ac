package services

import (
	"context"

	"golang.org/x/oauth2"
)

// VideoClient is the subset of the YouTube Data API used to materialize playlists.
type VideoClient interface {
	// SearchVideo returns the id of the best matching music video, or "" when nothing matched.
	SearchVideo(ctx context.Context, query string) (string, error)

	// VideoDurations returns ISO-8601 durations keyed by video id. Unknown ids are absent.
	VideoDurations(ctx context.Context, ids []string) (map[string]string, error)

	// CreatePlaylist creates a playlist owned by the authenticated user and returns its id.
	CreatePlaylist(ctx context.Context, title, description, privacy string) (string, error)

	// InsertPlaylistItem appends a video to a playlist.
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error
}

// VideoClientFactory builds a [VideoClient] authorized with tok.
type VideoClientFactory interface {
	New(ctx context.Context, tok *oauth2.Token) (VideoClient, error)
}

// CompletionClient sends one system + user prompt pair to a chat model and returns the reply text.
type CompletionClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// VideoClientFactoryFunc adapts a function to [VideoClientFactory].
type VideoClientFactoryFunc func(ctx context.Context, tok *oauth2.Token) (VideoClient, error)

func (f VideoClientFactoryFunc) New(ctx context.Context, tok *oauth2.Token) (VideoClient, error) {
	return f(ctx, tok)
}
