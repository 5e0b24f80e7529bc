// Package internal contains packages that are intentionally private to
// authgate.
//
// # Sub-packages
//
//   - attempt — failed-attempt tracking and lockout state
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - captcha — one-time arithmetic challenge issue/verify
//   - metrics — lock-free counters and latency histograms
//   - token — crypto/rand identifiers and remember-token encoding
//
// # What this package must NOT do
//
//   - Be imported by any package outside the authgate module.
//   - Perform policy decisions; those belong to the root Gateway.
package internal
