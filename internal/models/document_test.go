package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchEntry_MarshalDocument(t *testing.T) {
	entry := BatchEntry{
		Document: &Document{
			Filename:   "scan.pdf",
			TotalPages: 2,
			Pages: []Page{
				{PageNumber: 1, RawText: "first"},
				{PageNumber: 2, RawText: "second"},
			},
		},
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	// A successful entry flattens to the document shape, without an
	// error field.
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "scan.pdf", raw["filename"])
	assert.Equal(t, float64(2), raw["total_pages"])
	assert.NotContains(t, raw, "error")
}

func TestBatchEntry_MarshalFailure(t *testing.T) {
	entry := BatchEntry{
		Failure: &DocumentError{
			Filename: "broken.pdf",
			Error:    "invalid or unreadable PDF: bad header",
		},
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "broken.pdf", raw["filename"])
	assert.Contains(t, raw["error"], "unreadable")
	assert.NotContains(t, raw, "pages")
}

func TestBatchEntry_MarshalEmpty(t *testing.T) {
	_, err := json.Marshal(BatchEntry{})
	require.Error(t, err)
}

func TestBatchResult_RoundTrip(t *testing.T) {
	result := BatchResult{
		Results: []BatchEntry{
			{Document: &Document{Filename: "a.pdf", TotalPages: 1, Pages: []Page{{PageNumber: 1, RawText: "a"}}}},
			{Failure: &DocumentError{Filename: "b.pdf", Error: "boom"}},
			{Document: &Document{Filename: "c.pdf", TotalPages: 1, Pages: []Page{{PageNumber: 1, RawText: "c"}}}},
		},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var restored BatchResult
	require.NoError(t, json.Unmarshal(data, &restored))
	require.Len(t, restored.Results, 3)

	assert.NotNil(t, restored.Results[0].Document)
	assert.Nil(t, restored.Results[0].Failure)
	assert.Equal(t, "a.pdf", restored.Results[0].Document.Filename)

	assert.Nil(t, restored.Results[1].Document)
	require.NotNil(t, restored.Results[1].Failure)
	assert.Equal(t, "boom", restored.Results[1].Failure.Error)

	assert.Equal(t, "c.pdf", restored.Results[2].Document.Filename)
}

func TestErrorTaxonomy(t *testing.T) {
	verr := NewValidationError("field %s missing", "pdf_url")
	assert.Equal(t, "field pdf_url missing", verr.Error())
	assert.True(t, IsValidationError(verr))
	assert.False(t, IsDecodeError(verr))

	derr := &DecodeError{Err: assert.AnError}
	assert.True(t, IsDecodeError(derr))
	assert.Contains(t, derr.Error(), "invalid or unreadable PDF")
	assert.ErrorIs(t, derr, assert.AnError)

	eerr := &EngineError{Err: assert.AnError}
	assert.True(t, IsEngineError(eerr))
	assert.ErrorIs(t, eerr, assert.AnError)

	ferr := &FetchError{URL: "https://example.com/x.pdf", Err: assert.AnError}
	assert.True(t, IsFetchError(ferr))
	assert.Contains(t, ferr.Error(), "https://example.com/x.pdf")
}
