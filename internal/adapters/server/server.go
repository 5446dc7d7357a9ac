// Package server mounts the board's REST API and MCP tools on one echo router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/adapters/server/httpapi"
	"github.com/evanschultz/lanes/internal/adapters/server/mcpapi"
)

const (
	defaultBindAddress = "127.0.0.1:5437"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"
	shutdownGrace      = 5 * time.Second
	readHeaderTimeout  = 10 * time.Second
	readinessTimeout   = 2 * time.Second
)

// Config names the listen address and mount points for `lanes serve`.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the board service both transports share and the request logger.
type Dependencies struct {
	Service common.BoardService
	Logger  *log.Logger
}

// healthPayload is the /healthz and /readyz body.
type healthPayload struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

// NewHandler builds the root router: /healthz, /readyz, the REST API under
// cfg.APIEndpoint and the MCP endpoint at cfg.MCPEndpoint.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Service == nil {
		return nil, Config{}, fmt.Errorf("board service dependency is required")
	}

	tools, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Service)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Service, deps.Logger))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthPayload{Status: "ok", Name: cfg.ServerName, Version: cfg.ServerVersion})
	})
	e.GET("/readyz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
		defer cancel()
		if _, err := deps.Service.ListProjects(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, healthPayload{
				Status: "unavailable", Name: cfg.ServerName, Version: cfg.ServerVersion, Error: err.Error(),
			})
		}
		return c.JSON(http.StatusOK, healthPayload{Status: "ready", Name: cfg.ServerName, Version: cfg.ServerVersion})
	})
	e.Any(cfg.MCPEndpoint, echo.WrapHandler(tools))
	e.Any(cfg.APIEndpoint, echo.WrapHandler(api))
	e.Any(cfg.APIEndpoint+"/*", echo.WrapHandler(api))
	return e, cfg, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	srv := &http.Server{Addr: cfg.HTTPBind, Handler: handler, ReadHeaderTimeout: readHeaderTimeout}
	if deps.Logger != nil {
		deps.Logger.Info("serving board", "bind", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
	}

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	if deps.Logger != nil {
		deps.Logger.Info("board server stopped", "bind", cfg.HTTPBind)
	}
	return nil
}

// normalizeConfig fills defaults and rejects an API and MCP mount on the same path.
func normalizeConfig(cfg Config) (Config, error) {
	if cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind); cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}
	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = normalizeEndpoint(cfg.MCPEndpoint, defaultMCPEndpoint)
	if cfg.APIEndpoint == cfg.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints must differ: %s", cfg.APIEndpoint)
	}
	if cfg.ServerName = strings.TrimSpace(cfg.ServerName); cfg.ServerName == "" {
		cfg.ServerName = "lanes"
	}
	if cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion); cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg, nil
}

// normalizeEndpoint trims slashes so "api/v2/" mounts at "/api/v2".
func normalizeEndpoint(path, fallback string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return fallback
	}
	return "/" + path
}
