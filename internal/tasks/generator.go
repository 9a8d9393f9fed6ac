package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/services"
	"github.com/madc0w/playlister/internal/shared"
)

// DefaultTrackCount is how many songs the model is asked for.
const DefaultTrackCount = 20

const systemPrompt = "You are a music expert who creates perfect playlists. You always respond with valid JSON arrays only, no other text."

// Generator asks a chat model for a playlist matching free-text keywords.
type Generator struct {
	client services.CompletionClient
	count  int
	logger *log.Logger
}

func NewGenerator(client services.CompletionClient, count int, logger *log.Logger) *Generator {
	if count <= 0 {
		count = DefaultTrackCount
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Generator{client: client, count: count, logger: logger}
}

// Prompt builds the user message for keywords and an optional genre.
func (g *Generator) Prompt(keywords, genre string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a playlist of %d songs based on these keywords: %q.\n", g.count, keywords)
	if genre != "" {
		fmt.Fprintf(&b, "Only include songs from the %q genre.\n", genre)
	}
	b.WriteString(`Return ONLY a JSON array of objects with "name" and "artist" fields, and a "year" field when you know the release year. No additional text or explanation.
Example format:
[
  {"name": "Song Title", "artist": "Artist Name", "year": 1999},
  {"name": "Another Song", "artist": "Another Artist"}
]

Generate diverse, popular, and relevant songs that match the mood and theme of the keywords.`)
	return b.String()
}

// Generate returns the validated track list for keywords.
func (g *Generator) Generate(ctx context.Context, keywords, genre string) ([]models.TrackRequest, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, fmt.Errorf("%w: keywords are required", shared.ErrBadRequest)
	}
	genre = strings.TrimSpace(genre)

	content, err := g.client.Complete(ctx, systemPrompt, g.Prompt(keywords, genre))
	if err != nil {
		g.logger.Error("completion failed", "error", err)
		return nil, fmt.Errorf("%w: failed to generate playlist: %v", shared.ErrInternal, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: no response from generator", shared.ErrInternal)
	}

	tracks, err := ParseTracks(content)
	if err != nil {
		g.logger.Warn("unusable generator output", "error", err, "keywords", keywords)
		return nil, err
	}

	g.logger.Info("playlist generated", "keywords", keywords, "genre", genre, "tracks", len(tracks))
	return tracks, nil
}

// maxYear bounds accepted years so the int conversion is always exact.
const maxYear = 9999

// ParseTracks decodes model output into tracks.
//
// Surrounding code fences are ignored. Entries without a string name and artist are
// dropped; year is kept only when it is a whole number in 1..9999.
func ParseTracks(content string) ([]models.TrackRequest, error) {
	var raw []map[string]any
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid response from generator", shared.ErrInternal)
	}

	tracks := make([]models.TrackRequest, 0, len(raw))
	for _, entry := range raw {
		name, _ := entry["name"].(string)
		artist, _ := entry["artist"].(string)
		name, artist = strings.TrimSpace(name), strings.TrimSpace(artist)
		if name == "" || artist == "" {
			continue
		}

		t := models.TrackRequest{Name: name, Artist: artist}
		if y, ok := entry["year"].(float64); ok && y > 0 && y <= maxYear && y == math.Trunc(y) {
			year := int(y)
			t.Year = &year
		}
		tracks = append(tracks, t)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no valid songs in playlist", shared.ErrInternal)
	}
	return tracks, nil
}

// StripCodeFence removes a leading ``` or ```json line and a trailing ``` from s.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "```json"), "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
