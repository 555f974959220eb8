package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/internal/models"
)

// FileInput is one file submitted to a batch run.
type FileInput struct {
	Filename string
	Data     []byte
}

// ProcessBatch runs the document pipeline over every input, in input
// order, and tags each outcome instead of aborting on failure: a failed
// document becomes an inline DocumentError and the batch continues.
// The result always has exactly one entry per input, in the same order.
func (s *Service) ProcessBatch(ctx context.Context, inputs []FileInput, opts Options) *models.BatchResult {
	result := &models.BatchResult{
		Results: make([]models.BatchEntry, 0, len(inputs)),
	}

	for _, input := range inputs {
		doc, err := s.Process(ctx, input.Data, input.Filename, opts)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"filename": input.Filename,
				"error":    err.Error(),
			}).Warn("Batch entry failed")

			result.Results = append(result.Results, models.BatchEntry{
				Failure: &models.DocumentError{
					Filename: input.Filename,
					Error:    err.Error(),
				},
			})
			continue
		}

		result.Results = append(result.Results, models.BatchEntry{Document: doc})
	}

	return result
}
