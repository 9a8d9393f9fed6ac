package models

import (
	"fmt"
	"time"
)

// Run records one completed playlist materialization.
type Run struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	UserEmail  string    `json:"userEmail"`
	PlaylistID string    `json:"playlistId"`
	Title      string    `json:"title"`
	Total      int       `json:"total"`
	Added      int       `json:"added"`
	Failed     int       `json:"failed"`
	QuotaCost  int       `json:"quotaCost"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewRun builds a history record from a finished result.
func NewRun(session *Session, result *PlaylistResult) *Run {
	r := &Run{
		SessionID:  session.ID,
		UserEmail:  session.User.Email,
		PlaylistID: result.PlaylistID,
		Title:      result.Title,
		Total:      result.Stats.Total,
		Added:      result.Stats.Added,
		Failed:     result.Stats.Failed,
		CreatedAt:  time.Now(),
	}
	if result.Quota != nil {
		r.QuotaCost = result.Quota.TotalCost
	}
	return r
}

// URL returns the playlist's YouTube URL.
func (r *Run) URL() string {
	return PlaylistURL(r.PlaylistID)
}

func (r *Run) Validate() error {
	if r.PlaylistID == "" {
		return fmt.Errorf("run playlist id is required")
	}
	if r.Added+r.Failed != r.Total {
		return fmt.Errorf("run counts do not add up: %d + %d != %d", r.Added, r.Failed, r.Total)
	}
	return nil
}
