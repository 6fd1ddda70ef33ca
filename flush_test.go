package gettext

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sabiwara/gettext/po"
)

func TestMergePotFilesNewTemplate(t *testing.T) {
	extracted := map[string]*po.Catalog{
		"locales/default.pot": {Entries: []*po.Entry{
			untranslated("hello", po.Reference{File: "app.go", Line: 3}),
		}},
	}

	out, err := MergePotFiles(fstest.MapFS{}, nil, extracted)
	if err != nil {
		t.Fatalf("MergePotFiles() error: %v", err)
	}

	content, ok := out["locales/default.pot"]
	if !ok {
		t.Fatal("Expected content for the new template path")
	}
	text := string(content)
	if !strings.HasPrefix(text, "## This file is a PO Template file.\n") {
		t.Errorf("Expected the informational comment block, got:\n%s", text)
	}
	if !strings.Contains(text, "msgid \"hello\"") {
		t.Errorf("Expected the extracted entry, got:\n%s", text)
	}
}

func TestMergePotFilesMergesWithExisting(t *testing.T) {
	disk := `msgid "manual"
msgstr ""

#: gone.go:1
msgid "obsolete"
msgstr ""
`
	fsys := fstest.MapFS{
		"locales/default.pot": &fstest.MapFile{Data: []byte(disk)},
	}
	existing := map[string]bool{"locales/default.pot": true}
	extracted := map[string]*po.Catalog{
		"locales/default.pot": {Entries: []*po.Entry{
			untranslated("fresh", po.Reference{File: "app.go", Line: 8}),
		}},
	}

	out, err := MergePotFiles(fsys, existing, extracted)
	if err != nil {
		t.Fatalf("MergePotFiles() error: %v", err)
	}

	content, ok := out["locales/default.pot"]
	if !ok {
		t.Fatal("Expected merged content for the changed path")
	}
	merged, err := po.Parse(content)
	if err != nil {
		t.Fatalf("Parse() of written content failed: %v", err)
	}

	want := []string{"manual", "fresh"}
	if diff := len(merged.Entries); diff != len(want) {
		t.Fatalf("Expected entries %v, got %d entries", want, diff)
	}
	for i, id := range want {
		if got := merged.Entries[i].MsgID(); got != id {
			t.Errorf("Entry %d: expected msgid %q, got %q", i, id, got)
		}
	}
}

// A template whose author wrote their own file comments keeps them on a
// changed rewrite; the informational block is never substituted in.
func TestMergePotFilesKeepsCustomFileComments(t *testing.T) {
	disk := `## Curated by the docs team, do not regenerate headers.

#: app.go:3
msgid "hello"
msgstr ""
`
	fsys := fstest.MapFS{
		"locales/default.pot": &fstest.MapFile{Data: []byte(disk)},
	}
	existing := map[string]bool{"locales/default.pot": true}
	extracted := map[string]*po.Catalog{
		"locales/default.pot": {Entries: []*po.Entry{
			untranslated("hello", po.Reference{File: "app.go", Line: 3}),
			untranslated("fresh", po.Reference{File: "app.go", Line: 9}),
		}},
	}

	out, err := MergePotFiles(fsys, existing, extracted)
	if err != nil {
		t.Fatalf("MergePotFiles() error: %v", err)
	}

	text := string(out["locales/default.pot"])
	if !strings.HasPrefix(text, "## Curated by the docs team, do not regenerate headers.\n") {
		t.Errorf("Expected the template's own comments to survive, got:\n%s", text)
	}
	if strings.Contains(text, "## This file is a PO Template file.") {
		t.Errorf("Expected no informational block alongside existing comments, got:\n%s", text)
	}
}

func TestMergePotFilesOmitsUnchanged(t *testing.T) {
	entry := untranslated("hello", po.Reference{File: "app.go", Line: 3})
	disk := po.Format(&po.Catalog{Entries: []*po.Entry{entry.Clone()}})

	fsys := fstest.MapFS{
		"locales/default.pot": &fstest.MapFile{Data: disk},
	}
	existing := map[string]bool{"locales/default.pot": true}
	extracted := map[string]*po.Catalog{
		"locales/default.pot": {Entries: []*po.Entry{entry.Clone()}},
	}

	out, err := MergePotFiles(fsys, existing, extracted)
	if err != nil {
		t.Fatalf("MergePotFiles() error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Expected no output for an unchanged template, got %d paths", len(out))
	}
}

// Running the flush twice with identical extraction input must be a no-op
// the second time.
func TestMergePotFilesIdempotent(t *testing.T) {
	extracted := map[string]*po.Catalog{
		"locales/default.pot": {Entries: []*po.Entry{
			untranslated("hello", po.Reference{File: "app.go", Line: 3}),
			untranslated("one", po.Reference{File: "app.go", Line: 9}),
		}},
	}

	first, err := MergePotFiles(fstest.MapFS{}, nil, cloneExtracted(extracted))
	if err != nil {
		t.Fatalf("First MergePotFiles() error: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 written path on the first run, got %d", len(first))
	}

	fsys := fstest.MapFS{}
	existing := make(map[string]bool)
	for path, content := range first {
		fsys[path] = &fstest.MapFile{Data: content}
		existing[path] = true
	}

	second, err := MergePotFiles(fsys, existing, cloneExtracted(extracted))
	if err != nil {
		t.Fatalf("Second MergePotFiles() error: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("Expected an empty changed set on the second run, got %d paths", len(second))
	}
}

func TestMergePotFilesLeavesUntouchedPathsAlone(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/other.pot": &fstest.MapFile{Data: []byte("msgid \"x\"\nmsgstr \"\"\n")},
	}
	existing := map[string]bool{"locales/other.pot": true}
	extracted := map[string]*po.Catalog{
		"locales/default.pot": {Entries: []*po.Entry{untranslated("hello")}},
	}

	out, err := MergePotFiles(fsys, existing, extracted)
	if err != nil {
		t.Fatalf("MergePotFiles() error: %v", err)
	}
	if _, ok := out["locales/other.pot"]; ok {
		t.Error("Expected paths absent from the extraction to be left alone")
	}
}

func TestMergePotFilesAbortsOnInvariantViolation(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/bad.pot": &fstest.MapFile{Data: []byte("msgid \"foo\"\nmsgstr \"bar\"\n")},
	}
	existing := map[string]bool{"locales/bad.pot": true}
	extracted := map[string]*po.Catalog{
		"locales/bad.pot":     {Entries: []*po.Entry{untranslated("foo")}},
		"locales/default.pot": {Entries: []*po.Entry{untranslated("fine")}},
	}

	out, err := MergePotFiles(fsys, existing, extracted)
	if err == nil {
		t.Fatal("Expected the flush to abort, got nil error")
	}
	if out != nil {
		t.Error("Expected no partial output when the flush aborts")
	}
	if !strings.Contains(err.Error(), "\"foo\"") {
		t.Errorf("Expected the error to name the offending msgid, got %v", err)
	}
}

func TestMergePotFilesPropagatesParseErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/default.pot": &fstest.MapFile{Data: []byte("msgwat \"a\"\n")},
	}
	existing := map[string]bool{"locales/default.pot": true}
	extracted := map[string]*po.Catalog{
		"locales/default.pot": {Entries: []*po.Entry{untranslated("hello")}},
	}

	if _, err := MergePotFiles(fsys, existing, extracted); err == nil {
		t.Fatal("Expected a parse error to propagate, got nil")
	}
}

func cloneExtracted(extracted map[string]*po.Catalog) map[string]*po.Catalog {
	clone := make(map[string]*po.Catalog, len(extracted))
	for path, catalog := range extracted {
		clone[path] = catalog.Clone()
	}
	return clone
}
