// Package services talks to the platform backend's REST API.
//
// # APIService
//
// [APIService] is the raw HTTP layer. It returns [APIResponse] values carrying the status,
// headers and body, with JSON bodies decoded opportunistically. Authorization is handled by
// the [http.Client] it is given (see auth.NewClient).
//
// # Content
//
// [ContentService] wraps the presentation routes mounted under /slides/api/presentations:
// the slide manifest, per-slide HTML, per-slide MP3 audio and content generation.
//
// # Q&A
//
// [QAService] uploads recorded audio to /qa/transcribe. The real-time Q&A channel lives in
// package qa.
//
// # Error Handling
//
// Non-2xx responses are mapped by [CheckStatus] to sentinel errors from package shared:
//   - [shared.ErrNotAuthenticated] : 401, the token was missing or rejected
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrAPIRequest] : any other failure, with the status and the backend's detail
package services
