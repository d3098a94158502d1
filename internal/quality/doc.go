// Package quality defines playback quality levels and the policy for picking one.
//
// # Levels and Labels
//
// A [Level] is the token the player understands ("hd1080", "tiny"). A label is the user-facing
// name from configuration ("1080p", "144p"). [LevelFor] maps labels to levels and [Labels]
// lists the vocabulary in display order.
//
// Levels are ordered by a fixed rank table used only when neither an override nor the
// configured level is available. Unknown tokens rank 0, below every known token.
//
// # Selection
//
// [Choose] is the selection policy:
//  1. a remembered manual override for the video wins when the player still offers it
//  2. a stale override (no longer offered) is forgotten
//  3. the configured level wins when offered
//  4. otherwise the highest ranked offered level, ties broken by offer order
//
// # Overrides
//
// [Overrides] is the per-video memory of manual choices. The engine's monitor writes it and
// [Choose] reads it.
package quality
