// Package google provides OAuth2 authentication and token management for the
// Google Calendar API.
//
// Tokens obtained through the authorization code flow are cached on disk as
// JSON (under the XDG cache directory by default). Refreshed tokens are
// written back so that a long running server keeps working across restarts.
//
// The TokenProvider interface lets callers plug in other sources, such as a
// refresh token supplied through the environment.
package google
