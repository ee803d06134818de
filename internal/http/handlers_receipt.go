package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

var allowedReceiptTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// handleReceiptUpload accepts a multipart receipt image, runs OCR, and
// creates a transaction from whatever could be extracted.
func (s *Server) handleReceiptUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing receipt file")
		return
	}
	defer file.Close()

	// Sniff the content type rather than trusting the header.
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedReceiptTypes[contentType]
	if !ok {
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported file type %s, expected JPEG, PNG, or WebP", contentType))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	imagePath, err := s.saveUpload(file, ext)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to store receipt upload",
			"filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	paymentMethod := core.PaymentMethod(sanitizeInput(r.FormValue("paymentMethod")))

	created, extraction, err := s.transactions.CreateFromReceipt(r.Context(), imagePath, paymentMethod)
	if err != nil {
		if errors.Is(err, services.ErrNoAmount) {
			// The extraction is still useful to the client even though no
			// transaction was created.
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      "no amount could be read from the receipt",
				"extraction": extraction,
			})
			return
		}
		slog.ErrorContext(r.Context(), "Create from receipt failed", "image", imagePath, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process receipt")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": toTransactionResponse(created),
		"extraction":  extraction,
	})
}

func (s *Server) saveUpload(file io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := fmt.Sprintf("receipt_%d_%s%s", time.Now().UnixNano(),
		strings.TrimPrefix(generateRequestID(), "req_"), ext)
	path := filepath.Join(s.uploadDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}
