package hub

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// translationStore implements the locale-fallback merger from §4.5: a
// regional locale (xx-YY) merges base-then-override so it always
// carries the base's full key set, and a base locale arriving after
// its regionals rewrites every cached regional with itself as the
// base layer (regional overrides preserved).
type translationStore struct {
	locales  map[string]model.TranslationTable
	checksum string
}

func newTranslationStore() *translationStore {
	return &translationStore{locales: make(map[string]model.TranslationTable)}
}

func (s *translationStore) hasAny() bool {
	return len(s.locales) > 0
}

// baseOf returns the base locale for a regional tag ("fr-CA" -> "fr"),
// or "" if the tag carries no hyphen.
func baseOf(locale string) string {
	if i := strings.IndexByte(locale, '-'); i >= 0 {
		return locale[:i]
	}
	return ""
}

// ingest merges an incoming locale payload into the store per §4.5.
func (s *translationStore) ingest(locale string, incoming model.TranslationTable) {
	base := baseOf(locale)

	if base != "" {
		// Regional locale: merge base-then-override.
		merged := make(model.TranslationTable)
		if baseMap, ok := s.locales[base]; ok {
			for k, v := range baseMap {
				merged[k] = v
			}
		}
		for k, v := range incoming {
			merged[k] = v
		}
		s.locales[locale] = merged
		return
	}

	// Base locale: store it, then rewrite every cached regional with
	// the incoming map as the new base layer, preserving regional
	// overrides.
	s.locales[locale] = incoming.Clone()

	prefix := locale + "-"
	for existingLocale, oldRegional := range s.locales {
		if existingLocale == locale || !strings.HasPrefix(existingLocale, prefix) {
			continue
		}
		merged := make(model.TranslationTable, len(incoming)+len(oldRegional))
		for k, v := range incoming {
			merged[k] = v
		}
		for k, v := range oldRegional {
			merged[k] = v
		}
		s.locales[existingLocale] = merged
	}
}

// lookup resolves a requested locale per the fallback chain in §4.5:
// exact match, then base locale, then defaultLocale, then empty.
func (s *translationStore) lookup(locale, defaultLocale string) model.TranslationTable {
	if t, ok := s.locales[locale]; ok {
		return t
	}
	if base := baseOf(locale); base != "" {
		if t, ok := s.locales[base]; ok {
			return t
		}
	}
	if t, ok := s.locales[defaultLocale]; ok {
		return t
	}
	return model.TranslationTable{}
}

// checksumMatches reports whether a bulk delivery's checksum equals the
// currently stored checksum, per §4.5 — when it matches, the caller
// should skip reprocessing entirely (§8 property 8).
func (s *translationStore) checksumMatches(candidate string) bool {
	return candidate != "" && candidate == s.checksum
}

// recordChecksum stores the checksum after a successful (complete) bulk
// delivery. Per §4.11, an incomplete extraction must NOT update the
// checksum.
func (s *translationStore) recordChecksum(checksum string) {
	s.checksum = checksum
}

// CanonicalChecksum computes the hex SHA-256 over the canonical
// serialization described in §4.5: locales sorted, keys within each
// locale sorted, concatenated as "locale|key|value" bytes.
func CanonicalChecksum(locales map[string]model.TranslationTable) string {
	localeNames := make([]string, 0, len(locales))
	for l := range locales {
		localeNames = append(localeNames, l)
	}
	sort.Strings(localeNames)

	h := sha256.New()
	for _, l := range localeNames {
		keys := make([]string, 0, len(locales[l]))
		for k := range locales[l] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(l))
			h.Write([]byte{'|'})
			h.Write([]byte(k))
			h.Write([]byte{'|'})
			h.Write([]byte(locales[l][k]))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
