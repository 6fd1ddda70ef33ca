package po

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
)

var escaper = strings.NewReplacer(
	"\\", "\\\\",
	"\"", "\\\"",
	"\n", "\\n",
	"\t", "\\t",
	"\r", "\\r",
)

// Format converts a catalog to its canonical text form. The output is
// deterministic for identical input, which the merge engine relies on to
// detect files that do not need rewriting.
func Format(c *Catalog) []byte {
	var b bytes.Buffer

	for _, line := range c.Comments {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if len(c.Headers) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("msgid \"\"\n")
		b.WriteString("msgstr \"\"\n")
		for _, line := range c.Headers {
			fmt.Fprintf(&b, "\"%s\\n\"\n", escaper.Replace(line))
		}
	}

	for _, entry := range c.Entries {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		formatEntry(&b, entry)
	}

	return b.Bytes()
}

func formatEntry(b *bytes.Buffer, entry *Entry) {
	for _, comment := range entry.Comments {
		b.WriteByte('#')
		b.WriteString(comment)
		b.WriteByte('\n')
	}
	for _, comment := range entry.ExtractedComments {
		b.WriteString("#. ")
		b.WriteString(comment)
		b.WriteByte('\n')
	}
	if len(entry.References) > 0 {
		b.WriteString("#:")
		for _, ref := range entry.References {
			fmt.Fprintf(b, " %s:%d", ref.File, ref.Line)
		}
		b.WriteByte('\n')
	}
	if len(entry.Flags) > 0 {
		b.WriteString("#, ")
		b.WriteString(strings.Join(entry.Flags, ", "))
		b.WriteByte('\n')
	}

	formatFragments(b, "msgid", entry.ID)
	if entry.Plural() {
		formatFragments(b, "msgid_plural", entry.PluralID)
		for _, form := range pluralForms(entry) {
			formatFragments(b, fmt.Sprintf("msgstr[%d]", form), entry.Str[form])
		}
	} else {
		formatFragments(b, "msgstr", entry.Str[0])
	}
}

func pluralForms(entry *Entry) []int {
	forms := make([]int, 0, len(entry.Str))
	for form := range entry.Str {
		forms = append(forms, form)
	}
	if len(forms) == 0 {
		return []int{0}
	}
	slices.Sort(forms)
	return forms
}

func formatFragments(b *bytes.Buffer, keyword string, fragments []string) {
	b.WriteString(keyword)
	switch len(fragments) {
	case 0:
		b.WriteString(" \"\"\n")
	case 1:
		fmt.Fprintf(b, " \"%s\"\n", escaper.Replace(fragments[0]))
	default:
		b.WriteString(" \"\"\n")
		for _, fragment := range fragments {
			fmt.Fprintf(b, "\"%s\"\n", escaper.Replace(fragment))
		}
	}
}
