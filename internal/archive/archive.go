// Package archive is the Archive Extractor: it unpacks ZIP resource
// bundles to a local directory, enforcing entry-name safety, and
// locates/parses translations.json for translations_zip deliveries.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jflamy/owlcms-tracker-sub001/internal/apperr"
	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// extractWorkers bounds how many zip entries are written concurrently,
// per spec.md §5: "Binary ZIP extraction... MAY run on a worker pool".
const extractWorkers = 8

// Category is the closed set of resource categories an archive can
// target, matching the local file layout in spec.md §6.
type Category string

const (
	CategoryFlags        Category = "flags"
	CategoryLogos        Category = "logos"
	CategoryPictures     Category = "pictures"
	CategoryStyles       Category = "styles"
	CategoryTranslations Category = "translations"
)

// Result reports what actually got written, for the caller to emit the
// matching *_LOADED event with an accurate entry count even on partial
// failure (§4.11).
type Result struct {
	Category     Category
	EntriesWritten int
	SkippedUnsafe  int
}

// Extractor unpacks ZIP archives to localFilesDir/<category>/<entry>.
type Extractor struct {
	localFilesDir string
}

// New constructs an Extractor rooted at localFilesDir.
func New(localFilesDir string) *Extractor {
	return &Extractor{localFilesDir: localFilesDir}
}

// Extract unpacks every safe entry in the archive to
// <localFilesDir>/<category>/<entry-name>. Unsafe entries (path
// traversal, absolute paths, drive-letter prefixes, empty names) are
// skipped; other entries in the same archive are still extracted
// (§4.6, §4.11 ArchiveEntryUnsafe). File handles and buffers are
// released on every exit path.
func (e *Extractor) Extract(category Category, payload []byte) (Result, error) {
	res := Result{Category: category}

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return res, apperr.Wrap(apperr.MalformedFrame, "invalid zip archive", err)
	}

	destRoot := filepath.Join(e.localFilesDir, string(category))

	var written, skipped atomic.Int64
	var logMu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(extractWorkers)

	for _, f := range zr.File {
		f := f
		if f.FileInfo().IsDir() {
			continue
		}
		if !safeEntryName(f.Name) {
			skipped.Add(1)
			logMu.Lock()
			log.Printf("[Archive] skipped unsafe entry %q in %s archive", f.Name, category)
			logMu.Unlock()
			continue
		}

		g.Go(func() error {
			if err := extractOne(f, destRoot); err != nil {
				logMu.Lock()
				log.Printf("[Archive] failed to extract %q: %v", f.Name, err)
				logMu.Unlock()
				return nil // partial failure tolerated, per §4.11
			}
			written.Add(1)
			return nil
		})
	}

	_ = g.Wait() // extractOne never returns a non-nil error; Wait only waits out the pool
	res.EntriesWritten = int(written.Load())
	res.SkippedUnsafe = int(skipped.Load())

	return res, nil
}

// safeEntryName rejects absolute paths, parent-directory traversal and
// drive-letter prefixes, per §3 Binary Resource Bundle invariant.
func safeEntryName(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\") {
		return false
	}
	if len(name) >= 2 && name[1] == ':' { // drive letter, e.g. "C:\..."
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return false
	}
	for _, part := range strings.Split(clean, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// extractOne writes a single zip entry, releasing its reader and the
// destination file on every exit path.
func extractOne(f *zip.File, destRoot string) error {
	dest := filepath.Join(destRoot, filepath.FromSlash(f.Name))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create dest: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("write dest: %w", err)
	}
	return nil
}

// translationsEntryName is the literal entry name the extractor looks
// for inside a translations_zip archive, per §4.6. translationsWrapped
// below is the wrapped {locales, translationsChecksum} shape of that
// entry; the flat shape is handled in parseTranslationsJSON.
const translationsEntryName = "translations.json"

type translationsWrapped struct {
	Locales             map[string]model.TranslationTable `json:"locales"`
	TranslationsChecksum string                            `json:"translationsChecksum"`
}

// ExtractTranslations finds translations.json inside a translations_zip
// payload and parses it, supporting both the wrapped
// {locales:{...},translationsChecksum} shape and the flat
// {<locale>:{...},translationsChecksum} shape.
func ExtractTranslations(payload []byte) (map[string]model.TranslationTable, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, "", apperr.Wrap(apperr.MalformedFrame, "invalid translations zip", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == translationsEntryName || strings.HasSuffix(f.Name, "/"+translationsEntryName) {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, "", apperr.New(apperr.MalformedFrame, "translations.json not found in archive")
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, "", apperr.Wrap(apperr.MalformedFrame, "open translations.json", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.MalformedFrame, "read translations.json", err)
	}

	return parseTranslationsJSON(raw)
}

func parseTranslationsJSON(raw []byte) (map[string]model.TranslationTable, string, error) {
	var wrapped translationsWrapped
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Locales) > 0 {
		return wrapped.Locales, wrapped.TranslationsChecksum, nil
	}

	// Flat shape: {<locale>: {...}, translationsChecksum}. Parse as a
	// generic map and peel off the checksum key.
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, "", apperr.Wrap(apperr.MalformedFrame, "translations.json parse", err)
	}

	var checksum string
	if raw, ok := flat["translationsChecksum"]; ok {
		_ = json.Unmarshal(raw, &checksum)
		delete(flat, "translationsChecksum")
	}

	locales := make(map[string]model.TranslationTable, len(flat))
	for locale, raw := range flat {
		var table model.TranslationTable
		if err := json.Unmarshal(raw, &table); err != nil {
			continue
		}
		locales[locale] = table
	}
	return locales, checksum, nil
}
