// Package audit defines the audit event model and the asynchronous
// dispatcher that forwards events to host-supplied sinks.
//
// The dispatcher never blocks the authentication hot path: with DropIfFull
// set, a slow sink costs a dropped-event counter increment, nothing more.
// Close drains buffered events before returning.
package audit
