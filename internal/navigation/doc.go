// Package navigation turns host signals and URL polling into video identity notifications.
//
// The [Detector] does not de-duplicate; the engine compares each [Notification] against its
// live session and decides whether anything needs to happen.
// Pages without a video are reported with an empty VideoID so the engine can drop its session.
package navigation
