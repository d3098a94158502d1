// Package repositories implements SQLite persistence for reconciliation history.
//
// Key Implementations:
//   - [SessionRepository] : one row per finished search, with outcome and attempt count
//   - [OverrideRepository] : manual quality changes observed by the monitor
//   - [History] : both repositories behind the engine's recorder interface
//
// Sequence numbers provide stable, human-readable ordering (e.g., session #42) independent of UUIDs and timestamps.
// [NextSequence] bumps the single-row counter table that backs each sequenced table.
package repositories
