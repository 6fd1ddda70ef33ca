package gettext

import (
	"slices"

	"github.com/sabiwara/gettext/po"
)

// MergeTemplate combines a previously persisted template catalog with a
// catalog built purely from this build's extraction for the same
// destination path.
//
// Entries without references were added to the old catalog by hand; the
// merge has no evidence they are tied to source, so they are kept
// unchanged in their original position. Entries with references are fully
// owned by the extractor: when the freshly extracted catalog contains the
// same message, the fresh entry is emitted at the old entry's position so
// references and source-derived metadata stay current while catalog order
// stays stable; otherwise the message no longer occurs in source and the
// old entry is discarded. Extracted entries with no counterpart in the old
// catalog are appended after everything else, in extraction order.
//
// Headers and file comments are always inherited from old. Every entry on
// either side must be untranslated; otherwise the merge fails with an
// *InvariantViolationError naming the offending msgid.
func MergeTemplate(old, fresh *po.Catalog) (*po.Catalog, error) {
	for _, catalog := range []*po.Catalog{old, fresh} {
		for _, entry := range catalog.Entries {
			if entry.Translated() {
				return nil, &InvariantViolationError{MsgID: entry.MsgID()}
			}
		}
	}

	merged := &po.Catalog{
		Comments: slices.Clone(old.Comments),
		Headers:  slices.Clone(old.Headers),
	}

	pool := make(map[string]*po.Entry, len(fresh.Entries))
	for _, entry := range fresh.Entries {
		if _, ok := pool[entry.Key()]; !ok {
			pool[entry.Key()] = entry
		}
	}

	// An identity claimed by an old entry is consumed: matched extracted
	// entries must not be emitted twice, and a hand-written entry shadows
	// an extracted one with the same message.
	consumed := make(map[string]bool, len(old.Entries))

	for _, entry := range old.Entries {
		key := entry.Key()
		if !entry.Autogenerated() {
			merged.Entries = append(merged.Entries, entry.Clone())
			consumed[key] = true
			continue
		}
		if replacement, ok := pool[key]; ok && !consumed[key] {
			merged.Entries = append(merged.Entries, replacement.Clone())
			consumed[key] = true
		}
	}

	for _, entry := range fresh.Entries {
		if consumed[entry.Key()] {
			continue
		}
		consumed[entry.Key()] = true
		merged.Entries = append(merged.Entries, entry.Clone())
	}

	return merged, nil
}
