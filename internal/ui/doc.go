// Package ui is bindery's terminal interface, built on Bubble Tea.
//
// The screen has four parts:
//
//   - Header: logo, the "Active: N" badge, connection state, how long ago
//     status was fetched, and a spinner while requests are in flight.
//   - Active strip: the downloading jobs with progress bars. It collapses
//     when nothing is downloading.
//   - Queue panel: every non-empty category in fixed order inside a
//     scrollable viewport.
//   - Footer: key hints, replaced by a toast after an action.
//
// The cursor walks one list of actionable elements, strip first and then
// panel, built from the bindings the render package returns. Pressing x
// fires the cancel bound to the selected element.
//
// Status results arrive as messages carrying their fetch sequence number
// and go through state.Store, which drops any result older than the one
// already shown.
//
// Search (/) opens an overlay over the book catalog; enter queues the
// highlighted result and d opens its details.
package ui
