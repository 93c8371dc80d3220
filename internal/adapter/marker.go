package adapter

import (
	"bytes"
	"strings"
)

// MarkerText identifies a file as generated. The writer looks for it before
// overwriting or deleting anything.
const MarkerText = "Generated by ruleforge. Do not edit; changes will be overwritten."

// MarkerKey is the JSON key that carries MarkerText in structured files.
const MarkerKey = "_generated"

// MarkerStyle selects how MarkerText is embedded.
type MarkerStyle int

const (
	// MarkerHTML embeds an HTML comment, after frontmatter when present.
	MarkerHTML MarkerStyle = iota
	// MarkerHash embeds a leading # comment (YAML, TOML).
	MarkerHash
)

// HasMarker reports whether content was produced by this tool.
func HasMarker(content []byte) bool {
	return bytes.Contains(content, []byte(MarkerText))
}

// Mark embeds the marker into content using style.
func Mark(content string, style MarkerStyle) string {
	switch style {
	case MarkerHash:
		return "# " + MarkerText + "\n" + content
	default:
		comment := "<!-- " + MarkerText + " -->\n"
		if fm, rest, ok := splitFrontmatter(content); ok {
			return fm + comment + rest
		}
		return comment + content
	}
}

// splitFrontmatter splits a leading ---/--- block from content. The returned
// frontmatter includes both delimiter lines.
func splitFrontmatter(content string) (string, string, bool) {
	if !strings.HasPrefix(content, "---\n") {
		return "", "", false
	}
	end := strings.Index(content[4:], "\n---\n")
	if end < 0 {
		return "", "", false
	}
	cut := 4 + end + len("\n---\n")
	return content[:cut], content[cut:], true
}
