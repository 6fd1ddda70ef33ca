// Package scanner extracts translatable message entries from Go source trees.
//
// It walks a directory for Go files, parses each one and records an entry
// for every message-emitting call site it finds: Gettext, DGettext,
// NGettext and DNGettext calls (function or method form) whose message
// arguments are string literals or concatenations of string literals.
// Dynamic messages cannot be extracted statically and are skipped.
package scanner

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sabiwara/gettext/po"
)

// DefaultFunctions are the call names treated as message-emitting when
// Config.Functions is empty.
var DefaultFunctions = []string{"Gettext", "DGettext", "NGettext", "DNGettext"}

// DefaultDomain is the catalog domain for calls that do not name one.
const DefaultDomain = "default"

const defaultWorkers = 4

// Recorder consumes extracted entries, keyed by destination catalog path.
// *gettext.Session satisfies it.
type Recorder interface {
	Record(path string, entry *po.Entry) error
}

// Config controls what the scanner looks for and where entries go.
type Config struct {
	// LocalesDir is the directory extracted templates live in; an entry
	// for domain d is recorded under LocalesDir/d.pot.
	LocalesDir string
	// Domain is the catalog domain for undomained calls. Defaults to
	// DefaultDomain.
	Domain string
	// Functions overrides the call names to match. Defaults to
	// DefaultFunctions.
	Functions []string
	// Workers bounds how many files are parsed concurrently.
	Workers int
}

// Scanner finds message-emitting call sites in Go source.
type Scanner struct {
	cfg       Config
	functions map[string]bool
}

// New returns a scanner for the given configuration.
func New(cfg Config) *Scanner {
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if len(cfg.Functions) == 0 {
		cfg.Functions = DefaultFunctions
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	functions := make(map[string]bool, len(cfg.Functions))
	for _, name := range cfg.Functions {
		functions[name] = true
	}
	return &Scanner{cfg: cfg, functions: functions}
}

// ScanDir walks root for Go files and records every extracted entry with
// rec. Files are parsed by a bounded pool of workers, so rec must be safe
// for concurrent use. Files that fail to parse are skipped with a warning;
// they will fail the build proper with a better message. A Recorder error
// aborts the scan.
func (s *Scanner) ScanDir(rec Recorder, root string) error {
	files, err := s.listGoFiles(root)
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				if scanErr := s.scanFile(rec, root, file); scanErr != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = scanErr
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

func (s *Scanner) listGoFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if file != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func (s *Scanner) scanFile(rec Recorder, root, file string) error {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, file, nil, parser.SkipObjectResolution)
	if err != nil {
		slog.Warn("Skipping unparsable file", "file", file, "error", err)
		return nil
	}

	display := file
	if rel, relErr := filepath.Rel(root, file); relErr == nil {
		display = rel
	}
	display = filepath.ToSlash(display)

	var recErr error
	ast.Inspect(node, func(n ast.Node) bool {
		if recErr != nil {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		domain, entry := s.extractCall(call)
		if entry == nil {
			return true
		}
		entry.References = []po.Reference{{
			File: display,
			Line: fset.Position(call.Pos()).Line,
		}}
		recErr = rec.Record(s.destination(domain), entry)
		return true
	})
	return recErr
}

// extractCall returns the domain and entry for a message-emitting call,
// or a nil entry when the call is not one (or its message is dynamic).
func (s *Scanner) extractCall(call *ast.CallExpr) (string, *po.Entry) {
	name := calleeName(call)
	if !s.functions[name] {
		return "", nil
	}

	args := call.Args
	domain := s.cfg.Domain
	if strings.HasPrefix(name, "D") {
		if len(args) < 1 {
			return "", nil
		}
		literal, ok := stringLiteral(args[0])
		if !ok || len(literal) != 1 {
			return "", nil
		}
		domain = literal[0]
		args = args[1:]
	}
	if len(args) < 1 {
		return "", nil
	}

	id, ok := stringLiteral(args[0])
	if !ok {
		return "", nil
	}
	entry := &po.Entry{
		ID:  id,
		Str: map[int][]string{0: {""}},
	}

	if strings.Contains(name, "NGettext") {
		if len(args) < 2 {
			return "", nil
		}
		plural, pluralOK := stringLiteral(args[1])
		if !pluralOK {
			return "", nil
		}
		entry.PluralID = plural
		entry.Str = map[int][]string{0: {""}, 1: {""}}
	}

	return domain, entry
}

func (s *Scanner) destination(domain string) string {
	return path.Join(filepath.ToSlash(s.cfg.LocalesDir), domain+".pot")
}

func calleeName(call *ast.CallExpr) string {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fun.Name
	case *ast.SelectorExpr:
		return fun.Sel.Name
	default:
		return ""
	}
}

// stringLiteral flattens a string literal or a concatenation of string
// literals into its fragments. Anything else is dynamic.
func stringLiteral(expr ast.Expr) ([]string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return nil, false
		}
		value, err := strconv.Unquote(e.Value)
		if err != nil {
			return nil, false
		}
		return []string{value}, true
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return nil, false
		}
		left, ok := stringLiteral(e.X)
		if !ok {
			return nil, false
		}
		right, ok := stringLiteral(e.Y)
		if !ok {
			return nil, false
		}
		return append(left, right...), true
	case *ast.ParenExpr:
		return stringLiteral(e.X)
	default:
		return nil, false
	}
}
