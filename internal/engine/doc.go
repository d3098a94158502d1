// Package engine reconciles the player's playback quality with the configured target.
//
// An [Engine] owns the shared [EngineState] and runs every callback on one goroutine: attempt
// ticks, monitor ticks, delayed starts, navigation notifications and config updates. Nothing
// here locks; components assume they are called from that goroutine.
//
// For each video the [Reconciler] searches for the player with a bounded number of attempts,
// picks a level with [quality.Choose] and asks the [Applier] to set it. The [Monitor] then
// watches for drift. A change it sees after the initial apply is treated as the user picking a
// different quality and is remembered per video. Changes the engine made itself are masked for
// [SelfWriteLease].
package engine
