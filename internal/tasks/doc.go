// Package tasks implements playlist generation and materialization with real-time progress reporting.
//
// # Core Operations
//
//  1. [Generator.Generate] : keywords (and an optional genre) to a validated track list
//     - Prompts a chat model for a JSON array of songs
//     - Strips code fences, drops entries without a name or artist
//
//  2. [Materializer.Materialize] : track list to a real YouTube playlist
//     - Refreshes the session's access token when it is about to expire ([TokenRefresher])
//     - Creates the playlist
//     - Resolves every track to a video with bounded concurrency ([TrackResolver])
//     - Inserts resolved videos in input order
//     - Returns a [models.PlaylistResult] where every track is either added or failed
//
// # Failure Policy
//
// Per-track problems become [models.FailedTrack] reasons and never abort the request.
// Authentication failures from any remote call abort with [shared.ErrAuthExpired];
// a failed playlist creation aborts with [shared.ErrInternal].
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends use select with default so a slow
// or absent reader never blocks the work.
//
// # Quota
//
// Each materialization charges YouTube Data API calls to a request-scoped [QuotaLedger].
package tasks
