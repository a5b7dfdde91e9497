package server

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wikichat/internal/provider"
	"github.com/mohammad-safakhou/wikichat/internal/store"
	"github.com/mohammad-safakhou/wikichat/internal/wiki"
)

// DebugHandler serves health and diagnostics endpoints. None of them sit on
// the chat pipeline's path: /health never touches the generation provider,
// and /debug/provider is the only place Probe is called.
type DebugHandler struct {
	Searcher    wiki.Searcher
	Provider    provider.Provider
	Store       *store.Store
	SearchLimit int
	Logger      *log.Logger
}

func (h *DebugHandler) Register(e *echo.Echo) {
	e.GET("/health", h.health)
	e.GET("/debug/search", h.search)
	e.GET("/debug/provider", h.provider)
	e.GET("/debug/database", h.database)
}

func (h *DebugHandler) health(c echo.Context) error {
	total, err := h.Store.CountInteractions(c.Request().Context())
	dbStatus := "connected"
	conversations := interface{}(total)
	if err != nil {
		dbStatus = "error: " + err.Error()
		conversations = "unknown"
		h.Logger.Printf("health check database connectivity issue: %v", err)
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		Service:        "wikichat-api",
		Conversations:  conversations,
		DatabaseStatus: dbStatus,
		Features: map[string]bool{
			"wikipedia_integration": true,
			"chat_history":          true,
			"postgresql_storage":    true,
		},
	})
}

// search is a raw pass-through of the search provider for diagnostics.
func (h *DebugHandler) search(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		query = "Albert Einstein"
	}
	hits := h.Searcher.Search(c.Request().Context(), query, h.SearchLimit)
	status := "success"
	if len(hits) == 0 {
		status = "no_results"
	}
	if hits == nil {
		hits = []wiki.SearchHit{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"query":         query,
		"results_found": len(hits),
		"results":       hits,
		"status":        status,
	})
}

func (h *DebugHandler) provider(c echo.Context) error {
	healthy, detail := h.Provider.Probe(c.Request().Context())
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": status,
		"detail": detail,
	})
}

func (h *DebugHandler) database(c echo.Context) error {
	ctx := c.Request().Context()
	total, err := h.Store.CountInteractions(ctx)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"database_status": "error",
			"error":           err.Error(),
			"status":          "error",
		})
	}

	recent, _, err := h.Store.ListInteractions(ctx, 5, 0)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"database_status": "error",
			"error":           err.Error(),
			"status":          "error",
		})
	}

	previews := make([]map[string]interface{}, 0, len(recent))
	for _, in := range recent {
		previews = append(previews, map[string]interface{}{
			"id":            in.ID,
			"query_preview": preview(in.Query, 50),
			"timestamp":     in.Timestamp,
			"sources_count": len(in.SourceURLs),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"database_status":     "connected",
		"total_conversations": total,
		"recent_chats":        previews,
		"status":              "success",
	})
}
