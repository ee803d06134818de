package http

import (
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
)

type categoryResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Icon         string   `json:"icon"`
	Color        string   `json:"color"`
	Keywords     []string `json:"keywords"`
	KeywordCount int      `json:"keywordCount"`
	ParentID     int64    `json:"parentId,omitempty"`
	IsDefault    bool     `json:"isDefault"`
	CreatedAt    string   `json:"createdAt"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Icon:         c.Icon,
		Color:        c.Color,
		Keywords:     keywords,
		KeywordCount: len(keywords),
		ParentID:     c.ParentID,
		IsDefault:    c.IsDefault,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ActiveCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	items := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		items = append(items, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": items})
}
