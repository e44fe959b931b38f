// Package repositories implements SQLite persistence for the opt-in slide cache.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Presentations support soft deletes via deleted_at timestamps and are excluded from queries once deleted.
// Slides belong to a presentation and are replaced wholesale when a presentation is re-cached.
//
// Key Implementations:
//   - [PresentationRepository] : Cached manifests with remote id lookups
//   - [SlideRepository] : Cached slide markup keyed by presentation and position
//   - [SlideCacheAdapter] : Read-through cache used by the presentation engine
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
