package ocr

import "context"

// Input is a single page image submitted for recognition.
type Input struct {
	// Image is the encoded image payload (PNG or JPEG).
	Image []byte
	// Language is an OCR language code such as "en" or "eng".
	// ISO-639-1 codes are normalized to Tesseract's trained-data names.
	Language string
	// DPI is the effective resolution of the image; zero means unknown.
	DPI int
}

// Engine converts one page image into recognized text.
// Implementations are not required to be safe for concurrent use;
// callers go through a Manager, which serializes recognition calls.
type Engine interface {
	// Recognize performs OCR on a single image and returns the text.
	Recognize(ctx context.Context, in Input) (string, error)

	// Close releases the engine's resources.
	Close() error
}

// Factory constructs an Engine. Construction is where model loading
// happens, so it is deferred until the first recognition call.
type Factory func() (Engine, error)

// tesseractCodes maps common ISO-639-1 language codes to the names
// Tesseract uses for its trained data files.
var tesseractCodes = map[string]string{
	"en": "eng",
	"id": "ind",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"zh": "chi_sim",
	"ja": "jpn",
	"ko": "kor",
}

// NormalizeLanguage translates a two-letter language code into the
// matching Tesseract code. Unrecognized values pass through unchanged,
// so full Tesseract codes like "eng" keep working.
func NormalizeLanguage(code string) string {
	if mapped, ok := tesseractCodes[code]; ok {
		return mapped
	}
	return code
}
