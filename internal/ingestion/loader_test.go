package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSONOrdersPages(t *testing.T) {
	content := []byte(`[
		{"page": 3, "text": "third"},
		{"page": 1, "text": "first"},
		{"page": 2, "text": "second"}
	]`)

	doc, err := FromJSON(content)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, "first", doc.Pages[0].Text)
	assert.Equal(t, 3, doc.Pages[2].Number)
}

func TestFromJSONRejectsDuplicatePages(t *testing.T) {
	content := []byte(`[{"page": 1, "text": "a"}, {"page": 1, "text": "b"}]`)

	_, err := FromJSON(content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate page number 1")
}

func TestFromJSONRejectsBadPageNumbers(t *testing.T) {
	_, err := FromJSON([]byte(`[{"page": 0, "text": "a"}]`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`[]`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestLoadDispatchesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"page": 1, "text": "hello"}]`), 0644))

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "hello", doc.Pages[0].Text)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/doc.json")
	assert.Error(t, err)
}

func TestFromPDFRejectsGarbage(t *testing.T) {
	_, err := FromPDF([]byte("not a pdf"))
	assert.Error(t, err)
}
