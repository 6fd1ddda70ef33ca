package gettext

import (
	"slices"

	"github.com/sabiwara/gettext/po"
)

// MergeCatalog reconciles a locale's translated catalog with a template,
// msgmerge-style: translations and translator comments survive, while
// references, extracted comments and source-derived flags are refreshed
// from the template. Template entries with no counterpart in the existing
// catalog are added untranslated, with one empty form per plural form
// declared by the catalog's Plural-Forms header. Existing autogenerated
// entries missing from the template are dropped as obsolete; hand-written
// entries are kept, in their original relative order, after everything
// emitted from the template.
func MergeCatalog(existing, template *po.Catalog) *po.Catalog {
	merged := &po.Catalog{
		Comments: slices.Clone(existing.Comments),
		Headers:  slices.Clone(existing.Headers),
	}
	if date := template.HeaderField("POT-Creation-Date"); date != "" {
		merged.SetHeaderField("POT-Creation-Date", date)
	}

	nplurals := existing.Nplurals()

	index := make(map[string]*po.Entry, len(existing.Entries))
	for _, entry := range existing.Entries {
		if _, ok := index[entry.Key()]; !ok {
			index[entry.Key()] = entry
		}
	}

	matched := make(map[string]bool, len(template.Entries))
	for _, tmpl := range template.Entries {
		key := tmpl.Key()
		if matched[key] {
			continue
		}
		matched[key] = true

		entry := tmpl.Clone()
		if translated, ok := index[key]; ok {
			entry.Comments = slices.Clone(translated.Comments)
			entry.Flags = mergeFlags(translated.Flags, tmpl.Flags)
			entry.Str = translated.Clone().Str
		} else {
			entry.Str = emptyForms(entry, nplurals)
		}
		merged.Entries = append(merged.Entries, entry)
	}

	for _, entry := range existing.Entries {
		if entry.Autogenerated() || matched[entry.Key()] {
			continue
		}
		matched[entry.Key()] = true
		merged.Entries = append(merged.Entries, entry.Clone())
	}

	return merged
}

// mergeFlags keeps the translated catalog's flags (fuzzy in particular)
// and adds template flags not already present.
func mergeFlags(existing, fromTemplate []string) []string {
	flags := slices.Clone(existing)
	for _, flag := range fromTemplate {
		if !slices.Contains(flags, flag) {
			flags = append(flags, flag)
		}
	}
	return flags
}

func emptyForms(entry *po.Entry, nplurals int) map[int][]string {
	if !entry.Plural() {
		return map[int][]string{0: {""}}
	}
	forms := make(map[int][]string, nplurals)
	for form := 0; form < nplurals; form++ {
		forms[form] = []string{""}
	}
	return forms
}
