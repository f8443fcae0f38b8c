// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that build directory trees,
// control time and manage environment variables, failing the test
// immediately on setup errors.
package testutil
