// Package locale resolves the per-language directories under a locales root.
package locale

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// Dir is one locale directory under the locales root, e.g. locales/fr.
type Dir struct {
	// Name is the directory name as found on disk, e.g. "fr" or "pt_BR".
	Name string
	// Tag is the parsed language tag for Name.
	Tag language.Tag
	// Messages is the LC_MESSAGES directory translated catalogs live in.
	Messages string
}

// ParseTag parses a locale directory name into a language tag. Gettext
// layouts conventionally use underscores ("pt_BR") where BCP 47 uses
// hyphens, so both are accepted. Returns language.Und when the name is
// not a language at all.
func ParseTag(name string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// Discover lists the locale directories under root in lexical order.
// Entries that are not directories or whose names do not parse as a
// language are returned in skipped rather than the result, so callers
// can warn about them.
func Discover(root string) (dirs []Dir, skipped []string, err error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		tag := ParseTag(name)
		if tag == language.Und {
			skipped = append(skipped, name)
			continue
		}
		dirs = append(dirs, Dir{
			Name:     name,
			Tag:      tag,
			Messages: filepath.Join(root, name, "LC_MESSAGES"),
		})
	}
	return dirs, skipped, nil
}
