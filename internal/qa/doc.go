// Package qa manages the real-time Q&A session with the platform backend.
//
// A [Client] owns at most one WebSocket at a time. On open it sends an [Auth] handshake with
// the stored token and refuses to send anything else until the backend answers [AuthSuccess].
// Every inbound frame is decoded into an [Inbound] variant and handed to the single callback
// registered through [Client.Connect]; the most recent registration wins.
//
// # Missing credentials
//
// Connecting without a stored token delivers [Error] with [AuthRequiredMessage] to the
// callback and closes the socket. No unauthenticated traffic is ever sent.
//
// # Failure handling
//
// There is no reconnection or retry. A socket that drops unexpectedly delivers
// Error{"connection closed"} once and leaves the client ready for a fresh [Client.Connect].
// Invalidating the token store (for example after any REST call answered 401) closes the
// socket and clears the authenticated flag.
package qa
