// Package models defines the presentation entities shared by the services, tasks and storage layers.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring the backend's presentation manifest
//   - [Presentation] : a presentation id, title and ordered slides
//   - [Slide] : one manifest entry with its 1-based number, markup and audio reference
//   - [ExportManifest] : the summary written next to an exported presentation
//
// 2. Persistent Entities: rows of the local slide cache
//   - [PersistedPresentation] : a cached presentation keyed by its remote id
//   - [PersistedSlide] : cached markup for one slide position
//
// Persistent entities implement [Model] (ID generation, timestamps, validation, soft delete)
// and are stored through a [Repository].
package models
