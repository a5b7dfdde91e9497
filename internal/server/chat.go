package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wikichat/config"
	"github.com/mohammad-safakhou/wikichat/internal/chat"
	"github.com/mohammad-safakhou/wikichat/internal/store"
)

// History page sizes are bounded: the limit is caller-supplied and reaches
// the storage layer, so an unclamped value would size queries and buffers.
const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// ChatHandler serves the chat pipeline and the history endpoints.
type ChatHandler struct {
	Service  *chat.Service
	Store    *store.Store
	Defaults config.ChatConfig
	Logger   *log.Logger
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("", h.chat)
	g.GET("/history", h.history)
	g.DELETE("/history", h.clear)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	preq, err := req.Pipeline(h.Defaults)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.Logger.Printf("chat request: %q (max_tokens=%d temperature=%.2f use_context=%t)",
		preview(preq.Query, 50), preq.MaxTokens, preq.Temperature, preq.UseContext)

	res, err := h.Service.Chat(c.Request().Context(), preq)
	if err != nil {
		var genErr *chat.GenerationError
		if errors.As(err, &genErr) {
			return echo.NewHTTPError(http.StatusBadGateway, genErr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Response:  res.Response,
		Query:     preq.Query,
		Sources:   res.SourceURLs,
		Timestamp: res.Timestamp,
	})
}

func (h *ChatHandler) history(c echo.Context) error {
	limit := queryInt(c, "limit", defaultHistoryLimit)
	offset := queryInt(c, "offset", 0)
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.Store.ListInteractions(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	history := make([]HistoryItem, 0, len(items))
	for _, in := range items {
		sources := in.SourceURLs
		if sources == nil {
			sources = []string{}
		}
		history = append(history, HistoryItem{
			ID:        in.ID,
			Query:     in.Query,
			Response:  in.Response,
			Sources:   sources,
			Timestamp: in.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, HistoryResponse{History: history, Total: total})
}

func (h *ChatHandler) clear(c echo.Context) error {
	deleted, err := h.Store.ClearInteractions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Logger.Printf("cleared %d interactions", deleted)
	return c.JSON(http.StatusOK, ClearResponse{
		Deleted: deleted,
		Message: fmt.Sprintf("Chat history cleared successfully. Deleted %d records.", deleted),
	})
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
