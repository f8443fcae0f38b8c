// SPDX-License-Identifier: MPL-2.0

// Package root models a watched directory tree: its canonical path, the
// set-once failure reason reported when the watch dies, the recrawl record
// and the idempotent cancellation signal.
package root
