// Package player sequences presentation slides against their narration.
//
// A [Player] owns an ordered slide list, the current index and a single [Media] element.
// Changing the index releases the previous slide's audio [Resource] before the next one is
// acquired through a [Loader], so exactly one resource is attached at a time.
//
// Media reports progress through [Event] values delivered to [Player.HandleEvent]. When a
// slide's audio ends the player waits for the advance delay and, if nobody navigated in
// the meantime, moves on and plays the next slide once it can play. At the last slide it
// signals completion on [Player.Done] instead.
//
// Audio failures only disable playback for the affected slide. Navigation keeps working and
// every slide attempts its own load.
package player
