package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-in", "docs/note.json", "-places", "0", "-currency", "JPY"})
	require.NoError(t, err)
	assert.Equal(t, "docs/note.pdf", cfg.out)
	assert.Equal(t, 0, cfg.places)
	assert.Equal(t, "JPY", cfg.currency)

	_, err = parseFlags(nil)
	assert.Error(t, err)
	_, err = parseFlags([]string{"-in", "x.json", "-places", "-1"})
	assert.Error(t, err)
}

func TestRun_Receipt(t *testing.T) {
	dir := t.TempDir()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 20, 10))))
	writeFile(t, filepath.Join(dir, "crack.png"), img.Bytes())
	writeFile(t, filepath.Join(dir, "note.json"), []byte(`{
		"kind": "receipt",
		"receipt": {
			"contractor": "Shree Builders",
			"date": "2024-03-01",
			"site": "Tower B",
			"category": "quality",
			"amount": "1500.00",
			"reason": "Plaster cracks",
			"images": ["crack.png", "missing.png"]
		}
	}`))

	cfg, err := parseFlags([]string{"-in", filepath.Join(dir, "note.json")})
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))

	pdf, err := os.ReadFile(filepath.Join(dir, "note.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, out.String(), "(1 pages)")
	assert.Contains(t, out.String(), "skipped image #1 missing.png")
}

func TestRun_StatementWithWorkbook(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stmt.json"), []byte(`{
		"kind": "statement",
		"statement": {
			"contractor": "Shree Builders",
			"from": "2024-02-01",
			"to": "2024-02-29",
			"items": [
				{"date": "2024-02-03", "category": "quality", "reason": "Cracks", "amount": "100.00"},
				{"date": "2024-02-10", "category": "safety", "reason": "Harness", "amount": 250.5}
			]
		}
	}`))
	xlsxPath := filepath.Join(dir, "stmt.xlsx")

	cfg, err := parseFlags([]string{"-in", filepath.Join(dir, "stmt.json"), "-xlsx", xlsxPath})
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))

	assert.Contains(t, out.String(), "total INR 350.50")
	_, err = os.Stat(filepath.Join(dir, "stmt.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(xlsxPath)
	assert.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.json":  `{"kind": "invoice"}`,
		"empty.json":    `{"kind": "receipt"}`,
		"badjson.json":  `{`,
		"baddate.json":  `{"kind": "statement", "statement": {"contractor": "A", "from": "01/02/2024", "to": "2024-02-29"}}`,
		"inverted.json": `{"kind": "statement", "statement": {"contractor": "A", "from": "2024-03-01", "to": "2024-02-01"}}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		writeFile(t, path, []byte(body))
		cfg, err := parseFlags([]string{"-in", path})
		require.NoError(t, err)
		assert.Error(t, run(cfg, &bytes.Buffer{}), name)
	}
}
