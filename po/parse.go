package po

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports malformed catalog text. It carries the 1-based line
// number of the offending line so build output can point at it.
type ParseError struct {
	Reason string
	Line   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed catalog on line %d: %s", e.Line, e.Reason)
}

// target identifies which field of the entry under construction is
// currently collecting string fragments.
type target int

const (
	targetNone target = iota
	targetMsgid
	targetMsgidPlural
	targetMsgstr
)

type parser struct {
	catalog  *Catalog
	comments []string // raw comment lines pending for the next entry
	entry    *Entry
	buf      []string // fragments for the current target
	tgt      target
	form     int // plural form index when tgt == targetMsgstr
	line     int
	anyEntry bool // a non-header entry has been committed
	headered bool // the header entry has been committed
}

// Parse converts raw catalog text into a Catalog. It fails with a
// *ParseError when the text is malformed; no repair is attempted.
func Parse(data []byte) (*Catalog, error) {
	p := &parser{catalog: &Catalog{}}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.consume(strings.TrimRight(sc.Text(), " \t\r")); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: p.line, Reason: err.Error()}
	}
	if err := p.finishEntry(); err != nil {
		return nil, err
	}
	p.flushFileComments()
	return p.catalog, nil
}

func (p *parser) consume(line string) error {
	switch {
	case line == "":
		if err := p.finishEntry(); err != nil {
			return err
		}
		p.flushFileComments()
		return nil
	case strings.HasPrefix(line, "#~"):
		// Obsolete entries carry no merge-relevant state; drop them.
		return nil
	case strings.HasPrefix(line, "#"):
		p.comments = append(p.comments, line)
		return nil
	case strings.HasPrefix(line, "\""):
		if p.tgt == targetNone {
			return &ParseError{Line: p.line, Reason: "string continuation outside of an entry"}
		}
		fragment, err := unquote(line)
		if err != nil {
			return &ParseError{Line: p.line, Reason: err.Error()}
		}
		p.buf = append(p.buf, fragment)
		return nil
	default:
		return p.keyword(line)
	}
}

func (p *parser) keyword(line string) error {
	keyword, rest, found := strings.Cut(line, " ")
	if !found || !strings.HasPrefix(strings.TrimSpace(rest), "\"") {
		return &ParseError{Line: p.line, Reason: fmt.Sprintf("expected quoted string after %q", keyword)}
	}
	fragment, err := unquote(strings.TrimSpace(rest))
	if err != nil {
		return &ParseError{Line: p.line, Reason: err.Error()}
	}

	switch {
	case keyword == "msgid":
		if p.entry != nil && p.tgt != targetNone {
			if finishErr := p.finishEntry(); finishErr != nil {
				return finishErr
			}
		}
		p.entry = &Entry{}
		p.tgt = targetMsgid
	case keyword == "msgid_plural":
		if p.entry == nil || p.tgt != targetMsgid {
			return &ParseError{Line: p.line, Reason: "msgid_plural without a preceding msgid"}
		}
		p.commit()
		p.tgt = targetMsgidPlural
	case keyword == "msgstr":
		if p.entry == nil {
			return &ParseError{Line: p.line, Reason: "msgstr without a preceding msgid"}
		}
		p.commit()
		p.tgt = targetMsgstr
		p.form = 0
	case strings.HasPrefix(keyword, "msgstr["):
		if p.entry == nil {
			return &ParseError{Line: p.line, Reason: "msgstr without a preceding msgid"}
		}
		index := strings.TrimSuffix(strings.TrimPrefix(keyword, "msgstr["), "]")
		form, atoiErr := strconv.Atoi(index)
		if atoiErr != nil || form < 0 {
			return &ParseError{Line: p.line, Reason: fmt.Sprintf("invalid plural form index %q", index)}
		}
		p.commit()
		p.tgt = targetMsgstr
		p.form = form
	default:
		return &ParseError{Line: p.line, Reason: fmt.Sprintf("unknown keyword %q", keyword)}
	}

	p.buf = append(p.buf, fragment)
	return nil
}

// commit moves the buffered fragments into the field the previous keyword
// selected. A leading empty fragment followed by continuations is the
// conventional multiline opener and is dropped.
func (p *parser) commit() {
	fragments := p.buf
	p.buf = nil
	if len(fragments) > 1 && fragments[0] == "" {
		fragments = fragments[1:]
	}
	switch p.tgt {
	case targetNone:
		return
	case targetMsgid:
		p.entry.ID = fragments
	case targetMsgidPlural:
		p.entry.PluralID = fragments
	case targetMsgstr:
		if p.entry.Str == nil {
			p.entry.Str = make(map[int][]string)
		}
		p.entry.Str[p.form] = fragments
	}
	p.tgt = targetNone
}

func (p *parser) finishEntry() error {
	if p.entry == nil {
		return nil
	}
	if p.tgt == targetMsgid || p.tgt == targetMsgidPlural {
		return &ParseError{Line: p.line, Reason: fmt.Sprintf("missing msgstr for msgid %q", strings.Join(p.buf, ""))}
	}
	p.commit()
	entry := p.entry
	p.entry = nil

	if !p.anyEntry && !p.headered && entry.MsgID() == "" && !entry.Plural() {
		p.headered = true
		p.catalog.Comments = append(p.catalog.Comments, p.comments...)
		p.comments = nil
		p.catalog.Headers = headerLines(strings.Join(entry.Str[0], ""))
		return nil
	}

	p.attachComments(entry)
	p.catalog.Entries = append(p.catalog.Entries, entry)
	p.anyEntry = true
	return nil
}

// attachComments classifies the pending raw comment lines onto the entry.
// Lines it cannot interpret stay attached verbatim as translator comments
// so nothing human-entered is lost.
func (p *parser) attachComments(entry *Entry) {
	for _, line := range p.comments {
		switch {
		case strings.HasPrefix(line, "#:"):
			refs, ok := parseReferences(strings.TrimPrefix(line, "#:"))
			if !ok {
				entry.Comments = append(entry.Comments, line[1:])
				continue
			}
			entry.References = append(entry.References, refs...)
		case strings.HasPrefix(line, "#."):
			entry.ExtractedComments = append(entry.ExtractedComments, strings.TrimPrefix(strings.TrimPrefix(line, "#."), " "))
		case strings.HasPrefix(line, "#,"):
			for _, flag := range strings.Split(strings.TrimPrefix(line, "#,"), ",") {
				if flag = strings.TrimSpace(flag); flag != "" {
					entry.Flags = append(entry.Flags, flag)
				}
			}
		default:
			entry.Comments = append(entry.Comments, line[1:])
		}
	}
	p.comments = nil
}

// flushFileComments promotes comment lines seen before any entry to
// file-level comments. Later comment blocks stay pending for the entry
// that follows them.
func (p *parser) flushFileComments() {
	if p.anyEntry || p.headered || len(p.comments) == 0 {
		return
	}
	p.catalog.Comments = append(p.catalog.Comments, p.comments...)
	p.comments = nil
}

func parseReferences(s string) ([]Reference, bool) {
	var refs []Reference
	for _, token := range strings.Fields(s) {
		file, lineText, ok := cutLast(token, ":")
		if !ok {
			return nil, false
		}
		line, err := strconv.Atoi(lineText)
		if err != nil || line < 0 {
			return nil, false
		}
		refs = append(refs, Reference{File: file, Line: line})
	}
	return refs, true
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// headerLines splits the header entry's msgstr into individual metadata
// lines, dropping the trailing newline artifact.
func headerLines(joined string) []string {
	if joined == "" {
		return nil
	}
	lines := strings.Split(joined, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func unquote(s string) (string, error) {
	if len(s) < 2 || !strings.HasPrefix(s, "\"") || !strings.HasSuffix(s, "\"") {
		return "", fmt.Errorf("expected a double-quoted string, got %q", s)
	}
	var b strings.Builder
	b.Grow(len(s))
	body := s[1 : len(s)-1]
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' {
			if ch == '"' {
				return "", fmt.Errorf("unescaped quote inside %q", s)
			}
			b.WriteByte(ch)
			continue
		}
		i++
		if i == len(body) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			return "", fmt.Errorf("unsupported escape %q", "\\"+string(body[i]))
		}
	}
	return b.String(), nil
}
