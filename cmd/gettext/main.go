// Package main provides gettext, a CLI tool for maintaining PO Template files
// from Go source code.
//
// gettext scans a source tree for message-emitting calls (Gettext, DGettext,
// NGettext, DNGettext), merges the extracted messages into the per-domain
// .pot templates under the locales directory, and can then propagate a
// template into each locale's translated .po catalog while preserving
// existing translations.
//
// Installation:
//
//	go install github.com/sabiwara/gettext/cmd/gettext@latest
//
// Basic Usage:
//
// Extract messages and refresh the templates:
//
//	gettext extract
//
// Extract from a specific source tree into a custom locales directory:
//
//	gettext extract -source ./internal -locales ./priv/locales
//
// Merge the default domain template into every locale's catalog:
//
//	gettext update
//
// Project defaults are read from .gettext.yaml in the working directory
// when present; command-line flags override it. All paths are resolved
// relative to the working directory.
//
// Set GETTEXT_SILENT to suppress informational logging.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/yaml"

	"github.com/sabiwara/gettext"
	"github.com/sabiwara/gettext/internal/locale"
	"github.com/sabiwara/gettext/internal/scanner"
	"github.com/sabiwara/gettext/internal/telemetry"
	"github.com/sabiwara/gettext/po"
)

const (
	defaultConfigFile = ".gettext.yaml"
	defaultLocalesDir = "locales"
	dirPermissions    = 0750
	filePermissions   = 0600
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "extract":
		err = runExtract(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "gettext: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: gettext <command> [options]

Commands:
  extract    Scan Go source and merge extracted messages into the
             per-domain .pot templates under the locales directory.
  update     Merge a domain template into each locale's .po catalog,
             preserving existing translations.

Run "gettext <command> -h" for command-specific flags.
`)
}

// projectConfig mirrors .gettext.yaml. Field names follow the YAML keys.
type projectConfig struct {
	SourceDir  string   `json:"sourceDir"`
	LocalesDir string   `json:"localesDir"`
	Domain     string   `json:"domain"`
	Functions  []string `json:"functions"`
	Workers    int      `json:"workers"`
}

// loadProjectConfig reads a .gettext.yaml file. A missing file is not an
// error; it yields the zero config so defaults and flags take over.
func loadProjectConfig(filename string) (projectConfig, error) {
	var cfg projectConfig

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", filename, err)
	}
	return cfg, nil
}

// firstNonEmpty returns the first non-empty value, so command-line flags
// take precedence over the config file, which takes precedence over the
// built-in default.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// parseList splits a comma-separated flag value into its non-empty parts.
func parseList(input string) []string {
	if input == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(input, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func silent() bool {
	return os.Getenv("GETTEXT_SILENT") != ""
}

type extractConfig struct {
	sourceDir     string
	localesDir    string
	domain        string
	functions     []string
	workers       int
	telemetryAddr string
}

func parseExtractFlags(args []string) (extractConfig, error) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigFile, "Project configuration file")
	sourceDir := fs.String("source", "", "Directory containing Go source files (default: current directory)")
	localesDir := fs.String("locales", "", "Directory the .pot templates live in (default: ./locales)")
	domain := fs.String("domain", "", "Catalog domain for calls that do not name one (default: default)")
	functions := fs.String("functions", "", "Comma-separated call names to extract (default: Gettext,DGettext,NGettext,DNGettext)")
	workers := fs.Int("workers", 0, "Number of files parsed concurrently")
	telemetryAddr := fs.String("telemetry-addr", "", "Optional address to serve Prometheus metrics on during the run")
	if err := fs.Parse(args); err != nil {
		return extractConfig{}, err
	}

	project, err := loadProjectConfig(*configFile)
	if err != nil {
		return extractConfig{}, err
	}

	cfg := extractConfig{
		sourceDir:     firstNonEmpty(*sourceDir, project.SourceDir, "."),
		localesDir:    firstNonEmpty(*localesDir, project.LocalesDir, defaultLocalesDir),
		domain:        firstNonEmpty(*domain, project.Domain),
		functions:     parseList(*functions),
		workers:       *workers,
		telemetryAddr: *telemetryAddr,
	}
	if len(cfg.functions) == 0 {
		cfg.functions = project.Functions
	}
	if cfg.workers <= 0 {
		cfg.workers = project.Workers
	}
	return cfg, nil
}

func runExtract(args []string) error {
	cfg, err := parseExtractFlags(args)
	if err != nil {
		return err
	}

	telemetry.ConfigureTelemetry(false)
	serveTelemetry(cfg.telemetryAddr)

	session := gettext.NewSession()
	if err := session.Setup(); err != nil {
		return err
	}

	if !silent() {
		slog.Info("Starting extraction",
			"session", session.ID(),
			"source", cfg.sourceDir,
			"locales", cfg.localesDir,
		)
	}

	sc := scanner.New(scanner.Config{
		LocalesDir: cfg.localesDir,
		Domain:     cfg.domain,
		Functions:  cfg.functions,
		Workers:    cfg.workers,
	})
	if err := sc.ScanDir(session, cfg.sourceDir); err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.sourceDir, err)
	}

	extracted, err := session.Snapshot()
	if err != nil {
		return err
	}
	sortCatalogs(extracted)

	templates, err := rebaseSnapshot(cfg.localesDir, extracted)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(templates))
	for path := range templates {
		if _, statErr := os.Stat(filepath.Join(cfg.localesDir, filepath.FromSlash(path))); statErr == nil {
			existing[path] = true
		}
	}

	files, err := gettext.MergePotFiles(os.DirFS(cfg.localesDir), existing, templates)
	if err != nil {
		return err
	}

	if err := writeFiles(cfg.localesDir, files); err != nil {
		return err
	}

	if err := session.Teardown(); err != nil {
		return err
	}

	logSummary("Extraction complete", len(files))
	return nil
}

// sortCatalogs orders the snapshot deterministically before the merge:
// references by position, entries by their first reference then identity.
// Concurrent scanning records entries in nondeterministic order, and
// templates should not churn between runs over identical source.
func sortCatalogs(extracted map[string]*po.Catalog) {
	for _, catalog := range extracted {
		for _, entry := range catalog.Entries {
			slices.SortFunc(entry.References, compareReferences)
		}
		slices.SortStableFunc(catalog.Entries, func(a, b *po.Entry) int {
			if c := compareFirstReference(a, b); c != 0 {
				return c
			}
			return strings.Compare(a.Key(), b.Key())
		})
	}
}

func compareReferences(a, b po.Reference) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	}
	return a.Line - b.Line
}

func compareFirstReference(a, b *po.Entry) int {
	switch {
	case len(a.References) == 0 && len(b.References) == 0:
		return 0
	case len(a.References) == 0:
		return -1
	case len(b.References) == 0:
		return 1
	}
	return compareReferences(a.References[0], b.References[0])
}

// rebaseSnapshot rekeys the snapshot from scanner destinations to paths
// relative to the locales root. The merge reads existing templates through
// an fs.FS rooted there, which only accepts unrooted paths, so absolute
// and ..-relative locales directories must be stripped off first.
func rebaseSnapshot(localesDir string, extracted map[string]*po.Catalog) (map[string]*po.Catalog, error) {
	templates := make(map[string]*po.Catalog, len(extracted))
	for p, catalog := range extracted {
		rel, err := filepath.Rel(localesDir, filepath.FromSlash(p))
		if err != nil {
			return nil, fmt.Errorf("resolving template path %s against %s: %w", p, localesDir, err)
		}
		templates[filepath.ToSlash(rel)] = catalog
	}
	return templates, nil
}

func writeFiles(localesDir string, files map[string][]byte) error {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	for _, p := range paths {
		target := filepath.Join(localesDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), dirPermissions); err != nil {
			return fmt.Errorf("creating directory for %s: %w", target, err)
		}
		if err := os.WriteFile(target, files[p], filePermissions); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		telemetry.FilesWritten.Inc()
		if !silent() {
			slog.Info("Wrote template", "path", target, "bytes", len(files[p]))
		}
	}
	return nil
}

// serveTelemetry exposes the metrics endpoint for the duration of the
// run when an address is configured. Extraction runs are short-lived, so
// the server is not shut down gracefully; the process exit takes it down.
func serveTelemetry(addr string) {
	if addr == "" {
		return
	}

	handler := telemetry.GetHTTPHandler(promhttp.HandlerOpts{})
	go func() {
		if !silent() {
			slog.Info("Serving telemetry", "addr", addr)
		}
		if err := http.ListenAndServe(addr, handler); err != nil { //nolint:gosec // Short-lived diagnostics endpoint
			slog.Error("Telemetry server failed", "error", err)
		}
	}()
}

func logSummary(message string, written int) {
	if silent() {
		return
	}

	totals := telemetry.Summary()
	slog.Info(message,
		"messages", totals["gettext_messages_recorded_total"],
		"catalogs", totals["gettext_catalogs_merged_total"],
		"written", written,
	)
}

type updateConfig struct {
	localesDir string
	domain     string
}

func parseUpdateFlags(args []string) (updateConfig, error) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigFile, "Project configuration file")
	localesDir := fs.String("locales", "", "Directory the .pot templates and locale catalogs live in (default: ./locales)")
	domain := fs.String("domain", "", "Catalog domain to update (default: default)")
	if err := fs.Parse(args); err != nil {
		return updateConfig{}, err
	}

	project, err := loadProjectConfig(*configFile)
	if err != nil {
		return updateConfig{}, err
	}

	return updateConfig{
		localesDir: firstNonEmpty(*localesDir, project.LocalesDir, defaultLocalesDir),
		domain:     firstNonEmpty(*domain, project.Domain, scanner.DefaultDomain),
	}, nil
}

func runUpdate(args []string) error {
	cfg, err := parseUpdateFlags(args)
	if err != nil {
		return err
	}

	telemetry.ConfigureTelemetry(false)

	templatePath := path.Join(cfg.localesDir, cfg.domain+".pot")
	raw, err := os.ReadFile(filepath.FromSlash(templatePath))
	if err != nil {
		return fmt.Errorf("reading template %s: %w", templatePath, err)
	}
	template, err := po.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", templatePath, err)
	}

	dirs, skipped, err := locale.Discover(cfg.localesDir)
	if err != nil {
		return fmt.Errorf("listing locales in %s: %w", cfg.localesDir, err)
	}
	for _, name := range skipped {
		slog.Warn("Skipping non-locale directory", "name", name, "locales", cfg.localesDir)
	}

	written := 0
	for _, dir := range dirs {
		changed, err := updateLocale(dir, cfg.domain, template)
		if err != nil {
			return err
		}
		if changed {
			written++
		}
	}

	logSummary("Update complete", written)
	return nil
}

// updateLocale merges the template into one locale's catalog and writes it
// back when the content changed. A locale without a catalog yet gets a
// fresh one with every entry untranslated and its Language header set.
func updateLocale(dir locale.Dir, domain string, template *po.Catalog) (bool, error) {
	catalogPath := filepath.Join(dir.Messages, domain+".po")

	var existing *po.Catalog
	raw, err := os.ReadFile(catalogPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		existing = &po.Catalog{Headers: slices.Clone(template.Headers)}
		existing.SetHeaderField("Language", dir.Name)
	case err != nil:
		return false, fmt.Errorf("reading catalog %s: %w", catalogPath, err)
	default:
		existing, err = po.Parse(raw)
		if err != nil {
			return false, fmt.Errorf("parsing catalog %s: %w", catalogPath, err)
		}
	}

	merged := gettext.MergeCatalog(existing, template)
	content := po.Format(merged)
	if raw != nil && bytes.Equal(content, raw) {
		telemetry.CatalogsMerged.WithLabelValues("unchanged").Inc()
		return false, nil
	}
	if raw == nil {
		telemetry.CatalogsMerged.WithLabelValues("new").Inc()
	} else {
		telemetry.CatalogsMerged.WithLabelValues("changed").Inc()
	}

	if err := os.MkdirAll(dir.Messages, dirPermissions); err != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir.Messages, err)
	}
	if err := os.WriteFile(catalogPath, content, filePermissions); err != nil {
		return false, fmt.Errorf("writing catalog %s: %w", catalogPath, err)
	}
	telemetry.FilesWritten.Inc()
	if !silent() {
		slog.Info("Wrote catalog", "path", catalogPath, "language", dir.Tag.String())
	}
	return true, nil
}
