// Package services wraps the remote APIs playlister depends on.
//
// # YouTube Data API
//
// [YouTubeService] adapts google.golang.org/api/youtube/v3 to the [VideoClient] interface used by
// playlist materialization. A new service is built per request from the session's access token by
// [YouTubeFactory]; no client is shared across users.
//
// Quota units charged by YouTube for the calls made here:
//   - search.list : 100
//   - playlists.insert : 50
//   - playlistItems.insert : 50
//   - videos.list : 1
//
// # Chat Completions
//
// [OpenAIService] implements [CompletionClient] over github.com/sashabaranov/go-openai. The base URL is
// configurable so any OpenAI-compatible endpoint can serve playlist generation.
//
// # Playlister API
//
// [APIService] is a small HTTP client for a running playlister server, used by the CLI status command.
//
// # Error Handling
//
// [IsAuthError] classifies remote failures that mean the user must sign in again:
//   - [googleapi.Error] with status 401 or 403 (quota exhaustion excluded)
//   - [oauth2.RetrieveError] with error code invalid_grant
//
// [IsQuotaError] covers the excluded 403s and 429s. Callers abort on both, but report
// quota exhaustion as rate limiting rather than an expired sign-in.
package services
