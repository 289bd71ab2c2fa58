// Package state holds the view state the UI renders from.
//
// A Store sits between the status fetches and the interface. Every
// snapshot fetch carries a sequence number assigned when the request
// started; Apply accepts a result only when its sequence is newer than
// the last one applied, so a slow response can never overwrite a
// fresher one.
//
// On a successful result the panel and the active strip are re-rendered
// from the new snapshot. On a failed result the panel is replaced by the
// error message while the strip keeps showing the last good data.
//
// The active-download count for the header badge arrives separately.
// A failed count fetch leaves the previous value in place.
//
// The zero Store is ready to use.
package state
