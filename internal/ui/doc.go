// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a single playlist:
//  1. [PromptView] : Enter keywords and an optional genre
//  2. [GeneratingView] : Wait for the chat model to suggest tracks
//  3. [TrackListView] : Review the suggestions and drop the ones you don't want
//  4. [TitleView] : Name the playlist
//  5. [ConfirmView] : Confirm creation on YouTube
//  6. [CreatingView] : Follow search and insert progress
//  7. [ResultView] : Playlist link, counts and tracks that could not be added
//
// Progress updates flow through a channel from the materializer; the final result arrives on its own channel
// so a dropped progress update never loses it.
package ui
