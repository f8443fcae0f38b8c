// SPDX-License-Identifier: MPL-2.0

package root

import (
	"path/filepath"
	"strings"
)

// Dir is a node in a watched tree. Only the root node carries an absolute
// name; every other node holds its base name and derives the full path from
// its ancestors.
type Dir struct {
	parent *Dir
	name   string
}

// Child returns the node for the entry called name below d.
func (d *Dir) Child(name string) *Dir {
	return &Dir{parent: d, name: name}
}

// Parent returns the enclosing node, or nil for the root node.
func (d *Dir) Parent() *Dir {
	return d.parent
}

// Name returns the node's base name.
func (d *Dir) Name() string {
	return d.name
}

// FullPath joins the names from the root node down to d.
func (d *Dir) FullPath() string {
	if d.parent == nil {
		return d.name
	}
	return filepath.Join(d.parent.FullPath(), d.name)
}

// DirAt builds the node chain for an absolute path below the root. A path
// outside the root yields the root node.
func (r *Root) DirAt(path string) *Dir {
	rel, err := filepath.Rel(r.path, path)
	if err != nil {
		return r.dir
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return r.dir
	}
	d := r.dir
	for _, part := range strings.Split(rel, "/") {
		d = d.Child(part)
	}
	return d
}
