package tasks

import (
	"fmt"

	"github.com/madc0w/playlister/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	GeneratePlaylist Phase = iota
	RefreshToken
	CreatePlaylist
	ResolveTracks
	InsertTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case GeneratePlaylist:
		return "generate_playlist"
	case RefreshToken:
		return "refresh_token"
	case CreatePlaylist:
		return "create_playlist"
	case ResolveTracks:
		return "resolve_tracks"
	case InsertTracks:
		return "insert_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func refreshUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: RefreshToken, Step: 1, Total: 1, Message: "Checking YouTube credentials..."}
}

func createPlaylistUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on YouTube...", title),
	}
}

func createdPlaylistUpdate(title, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", title, id),
		Data:    id,
	}
}

func resolveUpdate(step, total int, tr models.TrackRequest, reason string) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, tr)
	if reason != "" {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, tr, reason)
	}
	return ProgressUpdate{Phase: ResolveTracks, Step: step, Total: total, Message: msg, Data: tr}
}

func insertUpdate(step, total int, tr models.TrackRequest, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] Added %s", step, total, tr)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] Failed to add %s: %v", step, total, tr, err)
	}
	return ProgressUpdate{Phase: InsertTracks, Step: step, Total: total, Message: msg, Data: tr}
}

func completeUpdate(result *models.PlaylistResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Added %d of %d tracks to %s", result.Stats.Added, result.Stats.Total, result.PlaylistURL),
		Data:    result,
	}
}
