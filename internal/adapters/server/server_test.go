package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/adapters/storage/sqlite"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// unreachableService fails every project read.
type unreachableService struct {
	common.BoardService
}

func (unreachableService) ListProjects(context.Context) ([]domain.Project, error) {
	return nil, errors.New("database is locked")
}

func newTestService(t *testing.T) *app.Service {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return app.NewService(repo, func() string { return "id-1" }, func() time.Time { return now }, app.ServiceConfig{})
}

func TestNewHandlerRequiresService(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestNewHandlerRejectsEndpointCollision(t *testing.T) {
	_, _, err := NewHandler(Config{APIEndpoint: "/x", MCPEndpoint: "x/"}, Dependencies{Service: newTestService(t)})
	if err == nil {
		t.Fatal("expected collision error")
	}
}

func TestNewHandlerServesHealthAndAPI(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	project, err := svc.EnsureDefaultProject(ctx)
	if err != nil {
		t.Fatalf("EnsureDefaultProject() error = %v", err)
	}
	if _, err := svc.CreateTask(ctx, app.CreateTaskInput{ProjectID: project.ID, Title: "Wire serve"}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	handler, cfg, err := NewHandler(Config{}, Dependencies{Service: svc})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" || cfg.ServerName != "lanes" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+strconv.FormatInt(project.ID, 10)+"/tasks", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Wire serve") {
		t.Fatalf("unexpected tasks response %d %s", rec.Code, rec.Body.String())
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":          "/fallback",
		"/":         "/fallback",
		"api":       "/api",
		" /api/v2/": "/api/v2",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/fallback"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadinessReflectsService(t *testing.T) {
	handler, _, err := NewHandler(Config{ServerName: "lanes-test", ServerVersion: "1.2.3"}, Dependencies{Service: newTestService(t)})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ready"`) {
		t.Fatalf("unexpected ready response %d %s", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !strings.Contains(rec.Body.String(), `"name":"lanes-test"`) || !strings.Contains(rec.Body.String(), `"version":"1.2.3"`) {
		t.Fatalf("expected name and version in health body, got %s", rec.Body.String())
	}

	handler, _, err = NewHandler(Config{}, Dependencies{Service: unreachableService{}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "database is locked") {
		t.Fatalf("unexpected unavailable response %d %s", rec.Code, rec.Body.String())
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Service: newTestService(t)})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
