// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the dirwatch command line interface.
package cmd
