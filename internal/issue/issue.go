// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	RootInaccessibleId Id = iota + 1
	HostPoisonedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to look up the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // every issue links to at least one troubleshooting section
		extLinks []HttpLink  // external references
	}
)

const troubleshooting = "https://github.com/dirwatch/dirwatch/blob/main/docs/troubleshooting.md"

var (
	render = glamour.Render

	rootInaccessibleIssue = &Issue{
		id: RootInaccessibleId,
		mdMsg: `
# A watched root became inaccessible

dirwatch could not open the top directory of a watch and cancelled it.
Nothing below that directory is being watched any more.

## Common causes
- The directory was deleted, renamed or unmounted
- A path component was replaced by a regular file
- A symlink in the path loops or points nowhere

## Things you can try
- Check that the directory exists and is a directory:
~~~
$ ls -ld /path/to/root
~~~
- Recreate or remount it, then start the watch again`,
		docLinks: []HttpLink{troubleshooting + "#root-inaccessible"},
	}

	hostPoisonedIssue = &Issue{
		id: HostPoisonedId,
		mdMsg: `
# The host ran out of a watch resource

dirwatch hit a per-process or system-wide limit (open files, inotify
watches or memory) and stopped trusting every watch on this host. All
watches keep failing with the same message until the limit is raised and
dirwatch is restarted.

## Things you can try
- Raise the inotify watch limit:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Raise the open file limit for your shell:
~~~
$ ulimit -n 65536
~~~
- Watch fewer or smaller trees, or ignore large generated directories
  with the ` + "`ignore`" + ` setting`,
		docLinks: []HttpLink{troubleshooting + "#poison-inotify_add_watch", troubleshooting + "#poison-opendir"},
		extLinks: []HttpLink{"https://man7.org/linux/man-pages/man7/inotify.7.html"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file could not be read or does not match the schema.

## Things you can try
- Check the line and field named in the error above
- Print the effective configuration:
~~~
$ dirwatch config show
~~~
- Write a fresh default file and edit it:
~~~
$ dirwatch config init --force
~~~

## Example
~~~cue
roots: ["/srv/data"]
ignore: ["**/target"]
debounce: "250ms"
log_level: "info"
~~~`,
		docLinks: []HttpLink{"https://github.com/dirwatch/dirwatch/blob/main/docs/configuration.md"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

dirwatch was refused access to a directory. That part of the tree is
not watched, and a warning is attached to the watch until the next
recrawl.

## Things you can try
- Check the directory permissions:
~~~
$ ls -ld /path/that/failed
~~~
- Run dirwatch as a user that can read the whole tree
- Add the directory to ` + "`ignore`" + ` if it should not be watched`,
		docLinks: []HttpLink{troubleshooting + "#permission-denied"},
	}

	issues = map[Id]*Issue{
		rootInaccessibleIssue.Id(): rootInaccessibleIssue,
		hostPoisonedIssue.Id():     hostPoisonedIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		permissionDeniedIssue.Id(): permissionDeniedIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the message and its links with glamour. stylePath is a
// glamour style name ("dark", "light", "notty") or a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, links := range [][]HttpLink{i.docLinks, i.extLinks} {
			for _, link := range links {
				md.WriteString("- <" + string(link) + ">\n")
			}
		}
	}
	return render(md.String(), stylePath)
}

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
