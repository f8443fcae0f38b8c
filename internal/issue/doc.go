// SPDX-License-Identifier: MPL-2.0

// Package issue turns failures into user-facing guidance: ActionableError
// carries the failed operation, the resource involved and suggested fixes,
// and the catalog holds Markdown explanations rendered with glamour.
package issue
