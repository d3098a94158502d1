// Package models defines the records tubetune persists about its work.
//
//   - [SessionRecord] : one finished search for a video (settled, override, or gave up)
//   - [OverrideEvent] : one observed manual quality change
//
// Both are plain values; persistence lives in the repositories package.
package models
