// Package google_tools provides MCP tools for Google OAuth authentication.
//
// The OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. The user visits the URL and authorizes calendar access
//  3. The user provides the authorization code
//  4. Call google_save_auth_code with the code to save the token
//
// The saved token is refreshed automatically and used by the calendar
// synchronization layer. These tools are exposed on the MCP endpoint only;
// the voice agent never sees them.
package google_tools
