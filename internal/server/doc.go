// Package server provides the playlister HTTP API plus the routing, middleware and OAuth plumbing it rests on.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] for paths and dispatches on method itself.
// Routes can be mirrored under alias prefixes; the API registers everything under "/api" as well.
//
// # Endpoints
//
//   - GET  /health                   liveness and whether OpenAI is configured
//   - GET  /auth/session             the signed-in user, or null
//   - GET  /auth/google              redirect to the Google consent screen
//   - GET  /auth/google/callback     store the session and redirect home
//   - POST /auth/logout              drop the session
//   - POST /generate-playlist        keywords to a track list
//   - POST /create-youtube-playlist  track list to a YouTube playlist
//   - GET  /history                  previous playlists of the signed-in user
//
// Errors are JSON: {"success": false, "error": {"code": ..., "message": ...}}. The mapping from
// sentinel errors to status codes lives in statusFor.
//
// # Sessions
//
// The browser only holds an HMAC-signed session id ([CookieSigner]). Tokens live in the session store
// and are refreshed by the materializer before YouTube is called.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the one-shot callback used by the CLI sign-in: it validates the state parameter,
// exchanges the code and sends the token through a channel. It only processes one callback.
package server
