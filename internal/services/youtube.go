package services

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// musicCategoryID is the YouTube video category for Music.
const musicCategoryID = "10"

// YouTubeService implements [VideoClient] with the official YouTube Data API client.
type YouTubeService struct {
	service *youtube.Service
}

// NewYouTubeService creates a service that sends requests through client.
// A non-empty endpoint replaces the API base URL.
func NewYouTubeService(ctx context.Context, client *http.Client, endpoint string) (*YouTubeService, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &YouTubeService{service: svc}, nil
}

// SearchVideo runs a single-result search restricted to music videos.
func (y *YouTubeService) SearchVideo(ctx context.Context, query string) (string, error) {
	resp, err := y.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(musicCategoryID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search %q: %w", query, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Id == nil {
		return "", nil
	}
	return resp.Items[0].Id.VideoId, nil
}

// VideoDurations looks up contentDetails.duration for ids in one call.
func (y *YouTubeService) VideoDurations(ctx context.Context, ids []string) (map[string]string, error) {
	durations := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return durations, nil
	}

	resp, err := y.service.Videos.List([]string{"contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	for _, item := range resp.Items {
		if item.ContentDetails == nil {
			continue
		}
		durations[item.Id] = item.ContentDetails.Duration
	}
	return durations, nil
}

func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description, privacy string) (string, error) {
	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{
			PrivacyStatus: privacy,
		},
	}

	resp, err := y.service.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}
	if resp.Id == "" {
		return "", fmt.Errorf("create playlist: empty playlist id in response")
	}
	return resp.Id, nil
}

func (y *YouTubeService) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}

	if _, err := y.service.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert video %s: %w", videoID, err)
	}
	return nil
}

// YouTubeFactory builds a [YouTubeService] per request from a session token.
//
// The token is used as-is; refreshing is the caller's job so the new token can be persisted first.
type YouTubeFactory struct {
	Endpoint string
	// Base is the transport under the OAuth client. Nil uses [http.DefaultTransport].
	Base http.RoundTripper
}

func (f *YouTubeFactory) New(ctx context.Context, tok *oauth2.Token) (VideoClient, error) {
	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(tok),
			Base:   f.Base,
		},
	}
	return NewYouTubeService(ctx, client, f.Endpoint)
}

var (
	_ VideoClient        = (*YouTubeService)(nil)
	_ VideoClientFactory = (*YouTubeFactory)(nil)
)
