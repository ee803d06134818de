package receipt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) ExtractText(ctx context.Context, imagePath string) (string, error) {
	return s.text, s.err
}

func TestScanner_Scan(t *testing.T) {
	scanner := NewScanner(&stubExtractor{text: "WALMART\nTotal: $42.50\n12/25/2023"})

	extraction := scanner.Scan(context.Background(), "/tmp/receipt.jpg")
	assert.Equal(t, "Walmart", extraction.MerchantName)
	assert.Equal(t, "42.50", extraction.Amount)
	assert.Equal(t, "2023-12-25", extraction.Date)
	assert.Equal(t, 0.8, extraction.Confidence)
	assert.Empty(t, extraction.Error)
}

func TestScanner_ScanExtractionFailure(t *testing.T) {
	scanner := NewScanner(&stubExtractor{err: errors.New("ocr engine unavailable")})

	extraction := scanner.Scan(context.Background(), "/tmp/receipt.jpg")
	assert.Equal(t, 0.0, extraction.Confidence)
	assert.Equal(t, "ocr engine unavailable", extraction.Error)
	assert.Empty(t, extraction.Amount)
	assert.Empty(t, extraction.MerchantName)
	assert.NotNil(t, extraction.Items)
}

func TestTesseractExtractor_MissingFile(t *testing.T) {
	extractor := NewTesseractExtractor("tesseract", 0)

	_, err := extractor.ExtractText(context.Background(), "/nonexistent/receipt.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receipt image not found")
}
