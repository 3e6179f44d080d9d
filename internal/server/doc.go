// Package server provides HTTP routing, middleware, and OAuth callback handling for the `auth` command.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] records each request at debug level.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback to prevent replay attacks.
//
// # Callback Server
//
// [CallbackServer] binds the configured address before the browser is opened, so the redirect cannot race the listener,
// and is shut down as soon as a result arrives.
package server
