package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/wikichat/config"
	"github.com/mohammad-safakhou/wikichat/internal/chat"
	"github.com/mohammad-safakhou/wikichat/internal/provider"
	"github.com/mohammad-safakhou/wikichat/internal/store"
	"github.com/mohammad-safakhou/wikichat/internal/wiki"
)

// Run wires the service together and serves HTTP until the process exits.
// Every collaborator is constructed here and injected; nothing is a process
// global.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		httpLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		httpLogger.Printf("migrate: %v", err)
	}

	st, err := store.New(ctx, dsn)
	if err != nil {
		return err
	}

	wk := wiki.NewClient(
		cfg.Wikipedia.SearchURL,
		cfg.Wikipedia.SummaryURL,
		cfg.Wikipedia.UserAgent,
		cfg.Wikipedia.Timeout,
		log.New(log.Writer(), "[WIKI] ", log.LstdFlags),
	)

	prov, err := provider.New(cfg.Provider)
	if err != nil {
		return err
	}

	svc := chat.NewService(wk, wk, prov, st,
		log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
		cfg.Wikipedia.SearchLimit,
		cfg.Chat.ContextCharLimit,
	)

	ch := &ChatHandler{
		Service:  svc,
		Store:    st,
		Defaults: cfg.Chat,
		Logger:   log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
	}
	ch.Register(e.Group("/chat"))

	dh := &DebugHandler{
		Searcher:    wk,
		Provider:    prov,
		Store:       st,
		SearchLimit: cfg.Wikipedia.DebugSearchLimit,
		Logger:      log.New(log.Writer(), "[DEBUG] ", log.LstdFlags),
	}
	dh.Register(e)

	return e.Start(cfg.Server.Address)
}
