// Package gettext extracts translatable message entries discovered during a
// build and reconciles them against previously persisted PO Template (POT)
// files, producing updated templates without losing human-entered data.
//
// The center of the package is the template merge engine (MergeTemplate and
// MergePotFiles) together with the extraction Session: a bracketed,
// process-wide lifecycle that safely accumulates entries recorded from
// multiple concurrent extraction points before the merge runs.
//
// Typical flow:
//
//	sess := gettext.NewSession()
//	if err := sess.Setup(); err != nil { ... }
//	// concurrent extraction points call sess.Record(path, entry)
//	extracted, _ := sess.Snapshot()
//	out, err := gettext.MergePotFiles(os.DirFS("."), existing, extracted)
//	// write every path in out, then:
//	_ = sess.Teardown()
//
// Catalog parsing and serialization live in the po subpackage; scanning Go
// source for message-emitting call sites lives in internal/scanner and is
// driven by the gettext command.
package gettext

import (
	"errors"
	"fmt"
)

// Lifecycle misuse is a programmer error: the build surface calls Setup
// and Teardown exactly once around extraction.
var (
	// ErrSessionActive is returned by Setup when the session is already active.
	ErrSessionActive = errors.New("gettext: extraction session already active")

	// ErrSessionIdle is returned by operations that require an active session.
	ErrSessionIdle = errors.New("gettext: extraction session not active")
)

// InvariantViolationError reports translated content found where a
// template-only catalog is required. Templates carry no translations, so
// the merge cannot safely decide what to do with one and aborts instead.
type InvariantViolationError struct {
	MsgID string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("gettext: translations are not allowed in templates, found a translation for msgid %q", e.MsgID)
}
