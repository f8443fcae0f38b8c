// SPDX-License-Identifier: MPL-2.0

// Package warnerr decides what happens to a watch when opening one of its
// directories fails.
//
// Classify reduces the OS error to a Disposition. Handler.HandleOpenError
// then either poisons the host, cancels the whole watch (the root itself is
// unreachable), or records a recrawl warning for the affected subtree, and
// emits exactly one diagnostic line describing what it did.
package warnerr
