// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/dirwatch/dirwatch/internal/crawl"
	"github.com/dirwatch/dirwatch/internal/issue"
	"github.com/dirwatch/dirwatch/internal/poison"
)

// glamourStyle lets glamour pick dark, light or notty from the terminal.
const glamourStyle = "auto"

// issueFor picks the catalog entry that explains err, or 0.
func issueFor(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}
	switch {
	case errors.Is(err, poison.ErrPoisoned):
		return issue.HostPoisonedId
	case errors.Is(err, crawl.ErrRootCancelled):
		return issue.RootInaccessibleId
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId
	default:
		return 0
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their own Format; verbose mode adds the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderGuidance writes the detailed error and the catalog guidance for
// err. The one-line error itself is printed by fang.
func renderGuidance(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && (ae.HasSuggestions() || verbose) {
		fmt.Fprintln(w, formatErrorForDisplay(ae, verbose))
	}

	id := issueFor(err)
	if id == 0 {
		return
	}
	md, renderErr := issue.Get(id).Render(glamourStyle)
	if renderErr != nil {
		return
	}
	fmt.Fprint(w, md)
}
