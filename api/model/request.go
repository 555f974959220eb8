package model

import "mime/multipart"

// OCRRequest is the single-document recognition request.
// The document arrives as a multipart form file.
type OCRRequest struct {
	File *multipart.FileHeader `form:"file"`
	Lang string                `form:"lang"`
	DPI  int                   `form:"dpi"`
}

// BatchOCRRequest carries recognition options for a multi-file upload.
// The files themselves are read from the multipart form directly.
type BatchOCRRequest struct {
	Lang string `form:"lang"`
	DPI  int    `form:"dpi"`
}

// CreateJobRequest is the async recognition job request.
type CreateJobRequest struct {
	PDFURL   string `json:"pdf_url" binding:"required"`
	Filename string `json:"filename"`
	Lang     string `json:"lang"`
	DPI      int    `json:"dpi"`
}

// JobStatusRequest binds the job ID path parameter.
type JobStatusRequest struct {
	ID string `uri:"id" binding:"required"`
}

// JobListRequest binds job list query parameters.
type JobListRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// GetPage returns the requested page, defaulting to 1.
func (r *JobListRequest) GetPage() int {
	if r.Page < 1 {
		return 1
	}
	return r.Page
}

// GetPageSize returns the requested page size, defaulting to 20.
func (r *JobListRequest) GetPageSize() int {
	if r.PageSize < 1 || r.PageSize > 100 {
		return 20
	}
	return r.PageSize
}
