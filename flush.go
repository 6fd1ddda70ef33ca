package gettext

import (
	"bytes"
	"fmt"
	"io/fs"
	"slices"

	"github.com/sabiwara/gettext/internal/telemetry"
	"github.com/sabiwara/gettext/po"
)

// templateComments is the informational comment block marking generated
// templates. It is added to new and rewritten templates that carry no file
// comments of their own, and round-trips through the parser so an
// unchanged template is never rewritten just to restate it.
var templateComments = []string{
	"## This file is a PO Template file.",
	"##",
	"## \"msgid\"s here are often extracted from source code.",
	"## Add new messages manually only if they're dynamic messages that",
	"## can't be statically extracted. Leave \"msgstr\"s empty as changing",
	"## them here has no effect: edit them in PO (.po) files instead.",
}

// MergePotFiles reconciles every freshly extracted catalog with its
// on-disk counterpart and returns the serialized content to write, keyed
// by path. extracted is the accumulator snapshot at flush time; existing
// names the paths known to exist on disk before this build, which are
// read through fsys.
//
// Paths whose merged content serializes byte-for-byte identical to the
// on-disk text are omitted, so a second run with identical extraction
// input returns an empty map. Existing paths absent from extracted are
// left alone. Any parse, read or invariant error aborts the whole flush;
// no partial content is returned.
func MergePotFiles(fsys fs.FS, existing map[string]bool, extracted map[string]*po.Catalog) (map[string][]byte, error) {
	out := make(map[string][]byte)

	for _, path := range sortedPaths(extracted) {
		fresh := extracted[path]

		if !existing[path] {
			catalog := fresh.Clone()
			ensureTemplateComments(catalog)
			out[path] = po.Format(catalog)
			telemetry.CatalogsMerged.WithLabelValues("new").Inc()
			continue
		}

		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", path, err)
		}
		onDisk, err := po.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", path, err)
		}
		merged, err := MergeTemplate(onDisk, fresh)
		if err != nil {
			return nil, fmt.Errorf("merging template %s: %w", path, err)
		}

		if bytes.Equal(po.Format(merged), raw) {
			telemetry.CatalogsMerged.WithLabelValues("unchanged").Inc()
			continue
		}

		ensureTemplateComments(merged)
		out[path] = po.Format(merged)
		telemetry.CatalogsMerged.WithLabelValues("changed").Inc()
	}

	return out, nil
}

func ensureTemplateComments(catalog *po.Catalog) {
	if len(catalog.Comments) == 0 {
		catalog.Comments = slices.Clone(templateComments)
	}
}

func sortedPaths(extracted map[string]*po.Catalog) []string {
	paths := make([]string, 0, len(extracted))
	for path := range extracted {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}
