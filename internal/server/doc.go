// Package server provides HTTP routing, middleware and the local slide preview.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] and [Recoverer] are the stock middleware.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Slide Preview
//
// [SlideHandler] serves a loaded presentation: an index page at "/" and each slide's raw
// markup at "/slides/{n}" (1-based). [PreviewServer] binds it to a local listener so the CLI
// can hand the browser a URL and shut the server down when the user is done.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
