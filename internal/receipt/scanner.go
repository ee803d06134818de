package receipt

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
)

// Scanner combines text extraction with parsing. Scan never returns an
// error: an extraction failure produces an empty result carrying a zero
// confidence and the error message, so the transaction workflow can always
// proceed with user-correctable data.
type Scanner struct {
	extractor TextExtractor
	parser    *Parser
}

func NewScanner(extractor TextExtractor) *Scanner {
	return &Scanner{extractor: extractor, parser: NewParser()}
}

func (s *Scanner) Scan(ctx context.Context, imagePath string) core.ReceiptExtraction {
	text, err := s.extractor.ExtractText(ctx, imagePath)
	if err != nil {
		slog.ErrorContext(ctx, "Receipt text extraction failed", "path", imagePath, "error", err)
		return core.ReceiptExtraction{
			Items:      []core.ReceiptItem{},
			Confidence: 0.0,
			Error:      err.Error(),
		}
	}
	return s.parser.Parse(text)
}
