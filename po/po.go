// Package po models gettext PO/POT catalogs and converts them to and from
// their on-disk text form.
//
// A Catalog is a pure value: ordered entries plus header metadata for one
// destination file. Entry identity is the concatenation of the msgid and
// msgid_plural fragments; references, comments and flags never participate
// in identity. Parse and Format are deterministic inverses for catalogs
// written by this package, which the merge engine relies on for its
// unchanged-file short circuit.
package po

import (
	"slices"
	"strconv"
	"strings"
)

type (
	// Reference points at the source location a message was extracted from.
	Reference struct {
		File string
		Line int
	}

	// Entry is a single message record in a catalog.
	//
	// ID and PluralID hold the msgid and msgid_plural text as ordered
	// fragments so that messages built from concatenated source literals
	// keep their shape. Str maps a plural form index to the translated
	// fragments for that form; singular messages use form 0 only.
	Entry struct {
		ID                []string
		PluralID          []string
		Str               map[int][]string
		Comments          []string
		ExtractedComments []string
		Flags             []string
		References        []Reference
	}

	// Catalog is an ordered set of entries plus header metadata for one file.
	//
	// Comments holds verbatim file-level comment lines that precede the
	// header entry. Entry order is significant and preserved across merges.
	Catalog struct {
		Comments []string
		Headers  []string
		Entries  []*Entry
	}
)

// MsgID returns the msgid with its fragments concatenated.
func (e *Entry) MsgID() string {
	return strings.Join(e.ID, "")
}

// MsgIDPlural returns the msgid_plural with its fragments concatenated,
// or the empty string for singular entries.
func (e *Entry) MsgIDPlural() string {
	return strings.Join(e.PluralID, "")
}

// Plural reports whether the entry carries a plural form.
func (e *Entry) Plural() bool {
	return e.PluralID != nil
}

// Key returns the identity of the entry's message. Two entries describe
// the same message exactly when their keys are equal; fragment boundaries,
// references and comments do not participate.
func (e *Entry) Key() string {
	return e.MsgID() + "\x04" + e.MsgIDPlural()
}

// SameMessage reports whether both entries describe the same message.
func (e *Entry) SameMessage(other *Entry) bool {
	return e.Key() == other.Key()
}

// Translated reports whether any plural form carries translated text.
func (e *Entry) Translated() bool {
	for _, fragments := range e.Str {
		if strings.Join(fragments, "") != "" {
			return true
		}
	}
	return false
}

// Autogenerated reports whether the entry was produced by source
// extraction. Entries without references were added to the catalog by
// hand and are never touched by the template merge.
func (e *Entry) Autogenerated() bool {
	return len(e.References) > 0
}

// Equal reports structural equality over every field, including
// references and translated content.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	if !slices.Equal(e.ID, other.ID) ||
		!slices.Equal(e.PluralID, other.PluralID) ||
		!slices.Equal(e.Comments, other.Comments) ||
		!slices.Equal(e.ExtractedComments, other.ExtractedComments) ||
		!slices.Equal(e.Flags, other.Flags) ||
		!slices.Equal(e.References, other.References) {
		return false
	}
	if len(e.Str) != len(other.Str) {
		return false
	}
	for form, fragments := range e.Str {
		otherFragments, ok := other.Str[form]
		if !ok || !slices.Equal(fragments, otherFragments) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := &Entry{
		ID:                slices.Clone(e.ID),
		PluralID:          slices.Clone(e.PluralID),
		Comments:          slices.Clone(e.Comments),
		ExtractedComments: slices.Clone(e.ExtractedComments),
		Flags:             slices.Clone(e.Flags),
		References:        slices.Clone(e.References),
	}
	if e.Str != nil {
		clone.Str = make(map[int][]string, len(e.Str))
		for form, fragments := range e.Str {
			clone.Str[form] = slices.Clone(fragments)
		}
	}
	return clone
}

// Equal reports structural equality of headers, file comments and the
// ordered entry list.
func (c *Catalog) Equal(other *Catalog) bool {
	if c == nil || other == nil {
		return c == other
	}
	if !slices.Equal(c.Comments, other.Comments) || !slices.Equal(c.Headers, other.Headers) {
		return false
	}
	return slices.EqualFunc(c.Entries, other.Entries, func(a, b *Entry) bool {
		return a.Equal(b)
	})
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	clone := &Catalog{
		Comments: slices.Clone(c.Comments),
		Headers:  slices.Clone(c.Headers),
	}
	if c.Entries != nil {
		clone.Entries = make([]*Entry, len(c.Entries))
		for i, e := range c.Entries {
			clone.Entries[i] = e.Clone()
		}
	}
	return clone
}

// HeaderField returns the value of the named header line, or the empty
// string if the header is not present. Name matching is case-insensitive
// per convention for PO headers.
func (c *Catalog) HeaderField(name string) string {
	for _, line := range c.Headers {
		field, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(field), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// SetHeaderField replaces the value of the named header line, appending
// a new line when the header is not present.
func (c *Catalog) SetHeaderField(name, value string) {
	for i, line := range c.Headers {
		field, _, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(field), name) {
			c.Headers[i] = name + ": " + value
			return
		}
	}
	c.Headers = append(c.Headers, name+": "+value)
}

// Nplurals returns the number of plural forms declared by the
// Plural-Forms header, or 2 when the header is absent or malformed.
func (c *Catalog) Nplurals() int {
	forms := c.HeaderField("Plural-Forms")
	for _, part := range strings.Split(forms, ";") {
		field, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(field) != "nplurals" {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
			return n
		}
	}
	return 2
}
