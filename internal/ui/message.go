package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksGenerated MsgKind = iota
	MsgProgressUpdate
	MsgPlaylistCreated
)

type tracksGenerated struct {
	tracks []models.TrackRequest
	err    error
}

type playlistCreated struct {
	result *models.PlaylistResult
	err    error
}

// tracksGeneratedMsg is the constructor for [MsgTracksGenerated]
func tracksGeneratedMsg(tracks []models.TrackRequest, err error) Msg {
	return Msg{kind: MsgTracksGenerated, data: tracksGenerated{tracks, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// playlistCreatedMsg is the constructor for [MsgPlaylistCreated]
func playlistCreatedMsg(result *models.PlaylistResult, err error) Msg {
	return Msg{kind: MsgPlaylistCreated, data: playlistCreated{result, err}}
}
