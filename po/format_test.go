package po

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatFullCatalog(t *testing.T) {
	catalog := &Catalog{
		Comments: []string{"## Generated template.", "##"},
		Headers:  []string{"Language: en", "Content-Type: text/plain; charset=UTF-8"},
		Entries: []*Entry{
			{
				Comments:          []string{" translator note"},
				ExtractedComments: []string{"extracted note"},
				References:        []Reference{{File: "lib/app.go", Line: 14}, {File: "lib/other.go", Line: 3}},
				Flags:             []string{"fuzzy"},
				ID:                []string{"hello"},
				Str:               map[int][]string{0: {""}},
			},
			{
				ID:       []string{"one file"},
				PluralID: []string{"%d files"},
				Str:      map[int][]string{0: {""}, 1: {""}},
			},
		},
	}

	want := `## Generated template.
##

msgid ""
msgstr ""
"Language: en\n"
"Content-Type: text/plain; charset=UTF-8\n"

# translator note
#. extracted note
#: lib/app.go:14 lib/other.go:3
#, fuzzy
msgid "hello"
msgstr ""

msgid "one file"
msgid_plural "%d files"
msgstr[0] ""
msgstr[1] ""
`

	if got := string(Format(catalog)); got != want {
		t.Errorf("Format() mismatch:\n%s", cmp.Diff(want, got))
	}
}

func TestFormatMultilineFragments(t *testing.T) {
	catalog := &Catalog{Entries: []*Entry{{
		ID:  []string{"first ", "second"},
		Str: map[int][]string{0: {""}},
	}}}

	want := `msgid ""
"first "
"second"
msgstr ""
`
	if got := string(Format(catalog)); got != want {
		t.Errorf("Format() mismatch:\n%s", cmp.Diff(want, got))
	}
}

func TestFormatEscapes(t *testing.T) {
	catalog := &Catalog{Entries: []*Entry{{
		ID:  []string{"line\nbreak \"quoted\" tab\t\\"},
		Str: map[int][]string{0: {""}},
	}}}

	want := `msgid "line\nbreak \"quoted\" tab\t\\"
msgstr ""
`
	if got := string(Format(catalog)); got != want {
		t.Errorf("Format() mismatch:\n%s", cmp.Diff(want, got))
	}
}

func TestFormatEntryWithoutStr(t *testing.T) {
	singular := &Catalog{Entries: []*Entry{{ID: []string{"hello"}}}}
	if got := string(Format(singular)); got != "msgid \"hello\"\nmsgstr \"\"\n" {
		t.Errorf("Unexpected singular output:\n%s", got)
	}

	plural := &Catalog{Entries: []*Entry{{ID: []string{"a"}, PluralID: []string{"b"}}}}
	if got := string(Format(plural)); got != "msgid \"a\"\nmsgid_plural \"b\"\nmsgstr[0] \"\"\n" {
		t.Errorf("Unexpected plural output:\n%s", got)
	}
}

// Formatting then parsing must reproduce the same text, otherwise the
// unchanged-file detection in the merge engine would rewrite files forever.
func TestFormatParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		catalog *Catalog
	}{
		{
			name: "entries only",
			catalog: &Catalog{Entries: []*Entry{
				{ID: []string{"hello"}, Str: map[int][]string{0: {""}}},
				{ID: []string{"one"}, PluralID: []string{"many"}, Str: map[int][]string{0: {""}, 1: {""}}},
			}},
		},
		{
			name: "comments and headers",
			catalog: &Catalog{
				Comments: []string{"## A file.", "##", "## More."},
				Headers:  []string{"Language: fr", "Plural-Forms: nplurals=2; plural=(n != 1);"},
				Entries: []*Entry{{
					Comments:   []string{" note"},
					References: []Reference{{File: "a.go", Line: 7}},
					ID:         []string{"hello"},
					Str:        map[int][]string{0: {"bonjour"}},
				}},
			},
		},
		{
			name: "multiline and escapes",
			catalog: &Catalog{Entries: []*Entry{{
				ID:  []string{"a\nb", "c\"d"},
				Str: map[int][]string{0: {""}},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Format(tt.catalog)
			reparsed, err := Parse(first)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			second := Format(reparsed)
			if !bytes.Equal(first, second) {
				t.Errorf("Round trip not stable:\n%s", cmp.Diff(string(first), string(second)))
			}
		})
	}
}
