package receipt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// TextExtractor is the OCR boundary: it turns a receipt image on disk into
// raw text. Implementations must fail with an error for missing files.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// TesseractExtractor shells out to the tesseract CLI. The binary lookup
// happens at most once and is shared across concurrent callers; every
// invocation runs under a conservative timeout since OCR can be slow.
type TesseractExtractor struct {
	binary  string
	timeout time.Duration

	initOnce sync.Once
	initErr  error
}

func NewTesseractExtractor(binary string, timeout time.Duration) *TesseractExtractor {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractExtractor{binary: binary, timeout: timeout}
}

func (t *TesseractExtractor) ExtractText(ctx context.Context, imagePath string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("receipt image not found: %w", err)
	}

	t.initOnce.Do(func() {
		_, t.initErr = exec.LookPath(t.binary)
	})
	if t.initErr != nil {
		return "", fmt.Errorf("ocr engine unavailable: %w", t.initErr)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, imagePath, "stdout")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run ocr: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
