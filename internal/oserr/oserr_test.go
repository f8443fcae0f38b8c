// SPDX-License-Identifier: MPL-2.0

package oserr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestFrom_Portable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode Code
		wantMsg  string
	}{
		{name: "nil", err: nil, wantCode: Other, wantMsg: ""},
		{name: "fs.ErrNotExist", err: fs.ErrNotExist, wantCode: NotFound, wantMsg: "file does not exist"},
		{name: "fs.ErrPermission", err: fs.ErrPermission, wantCode: PermissionDenied, wantMsg: "permission denied"},
		{
			name:     "path error keeps inner text",
			err:      &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist},
			wantCode: NotFound,
			wantMsg:  "file does not exist",
		},
		{name: "generic", err: errors.New("boom"), wantCode: Other, wantMsg: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := From(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("From(%v).Code = %v, want %v", tt.err, got.Code, tt.wantCode)
			}
			if got.Msg != tt.wantMsg {
				t.Errorf("From(%v).Msg = %q, want %q", tt.err, got.Msg, tt.wantMsg)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("wrapped: %w", fs.ErrPermission)
	e := From(cause)
	if !errors.Is(e, fs.ErrPermission) {
		t.Errorf("errors.Is(From(%v), fs.ErrPermission) = false, want true", cause)
	}
	if e.Error() != e.Msg {
		t.Errorf("Error() = %q, want %q", e.Error(), e.Msg)
	}
}

func TestCode_String(t *testing.T) {
	t.Parallel()

	tests := map[Code]string{
		Other:                 "other",
		NotFound:              "not_found",
		NotADirectory:         "not_a_directory",
		TooManySymlinks:       "too_many_symlinks",
		PermissionDenied:      "permission_denied",
		ResourceLimitExceeded: "resource_limit_exceeded",
		Code(99):              "other",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("Code(%d).String() = %q, want %q", int(code), got, want)
		}
	}
}

func TestFrom_AlreadyClassified(t *testing.T) {
	t.Parallel()

	orig := New(ResourceLimitExceeded, "too many open files")
	got := From(fmt.Errorf("register: %w", orig))
	if got.Code != ResourceLimitExceeded || got.Msg != "too many open files" {
		t.Errorf("From(wrapped New) = %+v, want code %v and original message", got, ResourceLimitExceeded)
	}
}
