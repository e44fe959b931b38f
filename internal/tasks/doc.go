// Package tasks orchestrates presentation loading and export with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines two operations:
//
//  1. [Engine.Open] : Load a presentation for playback
//     - Fetches the slide manifest
//     - Fetches every slide's markup through a rate-limited worker pool
//     - Substitutes [PlaceholderMarkup] for slides that fail and keeps going
//     - Falls back to probing slides one by one when the manifest is unavailable
//
//  2. [Engine.Export] : Write a presentation to disk
//     - Markup files per slide, optional narration files
//     - A manifest in json, markdown or plain text
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
//
// # Slide Caching
//
// The optional [SlideCacher] interface lets [Engine.Open] read markup from the local cache
// before going to the network and store what it fetched. Cache errors are ignored.
package tasks
