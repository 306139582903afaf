package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractWritesSafeEntries(t *testing.T) {
	dir := t.TempDir()
	ex := New(dir)

	data := buildZip(t, map[string]string{
		"usa.png":   "usa-bytes",
		"sub/fr.png": "fr-bytes",
	})

	res, err := ex.Extract(CategoryFlags, data)
	require.NoError(t, err)
	require.Equal(t, 2, res.EntriesWritten)
	require.Equal(t, 0, res.SkippedUnsafe)

	content, err := os.ReadFile(filepath.Join(dir, "flags", "usa.png"))
	require.NoError(t, err)
	require.Equal(t, "usa-bytes", string(content))
}

func TestExtractSkipsUnsafeEntriesButKeepsOthers(t *testing.T) {
	dir := t.TempDir()
	ex := New(dir)

	data := buildZip(t, map[string]string{
		"../../etc/passwd": "evil",
		"/absolute":        "evil2",
		"good.png":         "fine",
	})

	res, err := ex.Extract(CategoryLogos, data)
	require.NoError(t, err)
	require.Equal(t, 1, res.EntriesWritten)
	require.Equal(t, 2, res.SkippedUnsafe)

	_, err = os.Stat(filepath.Join(dir, "logos", "good.png"))
	require.NoError(t, err)
}

func TestSafeEntryName(t *testing.T) {
	cases := map[string]bool{
		"a.png":           true,
		"sub/dir/a.png":   true,
		"":                false,
		"/abs.png":        false,
		"../escape.png":   false,
		"a/../../b.png":   false,
		`C:\windows\x`:    false,
	}
	for name, want := range cases {
		require.Equal(t, want, safeEntryName(name), "name=%q", name)
	}
}

func TestExtractTranslationsWrappedShape(t *testing.T) {
	data := buildZip(t, map[string]string{
		"translations.json": `{"locales":{"en":{"Start":"Start"}},"translationsChecksum":"abc"}`,
	})

	locales, checksum, err := ExtractTranslations(data)
	require.NoError(t, err)
	require.Equal(t, "abc", checksum)
	require.Equal(t, "Start", locales["en"]["Start"])
}

func TestExtractTranslationsFlatShape(t *testing.T) {
	data := buildZip(t, map[string]string{
		"translations.json": `{"en":{"Start":"Start"},"fr":{"Start":"Commencer"},"translationsChecksum":"xyz"}`,
	})

	locales, checksum, err := ExtractTranslations(data)
	require.NoError(t, err)
	require.Equal(t, "xyz", checksum)
	require.Equal(t, "Start", locales["en"]["Start"])
	require.Equal(t, "Commencer", locales["fr"]["Start"])
}
