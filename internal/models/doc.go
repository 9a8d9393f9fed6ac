// Package models defines domain entities and persistence interfaces for playlister.
//
// The package contains two categories of types:
//
// 1. Request-scoped values that flow through playlist generation and materialization
//   - [TrackRequest] : a song to look up, with an optional release year
//   - [ResolvedTrack] : a track matched to a YouTube video
//   - [FailedTrack] : a track that could not be added, with a reason code
//   - [PlaylistResult] : the aggregate returned after materialization
//
// 2. Persistent entities
//   - [Session] : signed-in Google identity with OAuth tokens
//   - [Run] : history record of a completed materialization
//
// [SessionStore] and [RunStore] describe the storage the rest of the module depends on.
package models
