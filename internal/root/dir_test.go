// SPDX-License-Identifier: MPL-2.0

package root

import (
	"path/filepath"
	"testing"
)

func TestDir_FullPath(t *testing.T) {
	t.Parallel()

	r := newTestRoot(t)
	sub := r.Dir().Child("a").Child("b")

	want := filepath.Join(r.Path(), "a", "b")
	if got := sub.FullPath(); got != want {
		t.Errorf("FullPath() = %q, want %q", got, want)
	}
	if sub.Name() != "b" {
		t.Errorf("Name() = %q, want %q", sub.Name(), "b")
	}
	if sub.Parent().Parent() != r.Dir() {
		t.Error("grandparent of a/b is not the root node")
	}
}

func TestRoot_DirAt(t *testing.T) {
	t.Parallel()

	r := newTestRoot(t)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "root itself", path: r.Path(), want: r.Path()},
		{name: "nested", path: filepath.Join(r.Path(), "x", "y"), want: filepath.Join(r.Path(), "x", "y")},
		{name: "outside", path: filepath.Dir(r.Path()), want: r.Path()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.DirAt(tt.path).FullPath(); got != tt.want {
				t.Errorf("DirAt(%q).FullPath() = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
