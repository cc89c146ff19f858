package ui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# etcd-gui

A terminal client for browsing and editing etcd key-value data.

## Browser

| Key | Action |
|-----|--------|
| j/k, ↓/↑ | Move selection |
| g / G | First / last row |
| h/l, ←/→ | Previous / next page |
| +/- | Grow / shrink page size |
| r | Refresh key list |
| p | Edit key prefix (↓ opens history) |
| / | Filter keys by substring |
| Enter, v | View value |
| a | Add key |
| e | Edit value |
| d | Delete key |
| y | Copy value to clipboard |

## Value viewer

| Key | Action |
|-----|--------|
| o / n | Older / newer revision |
| f | Toggle JSON formatting |
| y | Copy to clipboard |

## Application

| Key | Action |
|-----|--------|
| P | Connection profiles |
| T | Cluster topology |
| t | Cycle color theme |
| ? | This help |
| q, Ctrl+C | Quit |

Keys are listed once per refresh; values are fetched only for the visible
page. The filter matches anywhere in the key and never leaves the page stale:
pagination always reflects the filtered list.
`

// renderHelp renders the help text for the given width. Falls back to the
// raw markdown if the renderer cannot be built.
func renderHelp(width int) string {
	if width < 40 {
		width = 40
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
