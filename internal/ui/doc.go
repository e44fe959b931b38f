// Package ui implements interactive terminal interfaces using bubbletea's Elm architecture.
//
// The presentation [Model] moves through these views:
//  1. [LoadingView] : progress while the manifest and slides are fetched
//  2. [SlideView] : slide text, narration progress bar, status line and controls
//  3. [NavigatorView] : jump to any slide from a filterable list
//  4. [ErrorView] : the presentation could not be opened
//
// Player state arrives as snapshots on [player.Player.Updates]; each one is turned into a
// Msg by a command that re-arms itself, the same way fetch progress is read from the engine.
//
// [ChatModel] is a text Q&A session: a textinput for questions and a viewport transcript of
// answers, transcriptions and errors. Errors are shown inline and the input stays usable.
package ui
