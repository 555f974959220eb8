package models

import (
	"encoding/json"
	"errors"
)

// Page holds the recognized text of a single rasterized page.
// Page numbers are 1-based and contiguous within a document.
type Page struct {
	PageNumber int    `json:"page_number"` // position in the document, starting at 1
	RawText    string `json:"raw_text"`    // all text recognized on the page
}

// Document is the aggregated OCR result for one input file.
// It lives only for the duration of a request or job; nothing persists it.
type Document struct {
	Filename   string `json:"filename"`    // original filename as submitted
	TotalPages int    `json:"total_pages"` // number of rasterized pages
	Pages      []Page `json:"pages"`       // ordered page results, len == TotalPages
}

// DocumentError replaces a Document in batch output when processing
// that one file failed.
type DocumentError struct {
	Filename string `json:"filename"` // filename as submitted
	Error    string `json:"error"`    // failure message
}

// BatchEntry is the tagged per-file result of a batch run: exactly one
// of Document or Failure is set.
type BatchEntry struct {
	Document *Document      `json:"-"`
	Failure  *DocumentError `json:"-"`
}

// MarshalJSON flattens the entry into either a Document or a
// DocumentError object, matching the wire shape of the batch response.
func (e BatchEntry) MarshalJSON() ([]byte, error) {
	if e.Failure != nil {
		return json.Marshal(e.Failure)
	}
	if e.Document != nil {
		return json.Marshal(e.Document)
	}
	return nil, errors.New("batch entry has neither document nor failure")
}

// UnmarshalJSON restores the tag by probing for the error field.
func (e *BatchEntry) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		e.Failure = &DocumentError{}
		return json.Unmarshal(data, e.Failure)
	}
	e.Document = &Document{}
	return json.Unmarshal(data, e.Document)
}

// BatchResult collects one entry per input file, in input order.
type BatchResult struct {
	Results []BatchEntry `json:"results"`
}
