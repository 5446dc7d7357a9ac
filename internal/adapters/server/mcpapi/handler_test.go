package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// stubService provides deterministic board responses for MCP tool tests.
type stubService struct {
	tasks      []domain.Task
	lastFetch  app.FetchOptions
	lastMove   domain.Status
	deleted    []int64
	lastAuthor string
}

func (s *stubService) ListProjects(context.Context) ([]domain.Project, error) {
	return []domain.Project{{ID: 1, Name: "Inbox"}}, nil
}

func (s *stubService) ListProjectTeams(context.Context, int64) ([]domain.TeamMember, error) {
	return nil, nil
}

func (s *stubService) ListTasks(_ context.Context, _ int64, opts app.FetchOptions) ([]domain.Task, error) {
	s.lastFetch = opts
	return s.tasks, nil
}

func (s *stubService) GetTaskDetail(_ context.Context, taskID int64) (domain.Task, error) {
	for _, task := range s.tasks {
		if task.ID == taskID {
			return task, nil
		}
	}
	return domain.Task{}, app.ErrNotFound
}

func (s *stubService) CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error) {
	return domain.Task{}, nil
}

func (s *stubService) UpdateTaskStatus(_ context.Context, taskID int64, status domain.Status) (domain.Task, error) {
	s.lastMove = status
	if !status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	return domain.Task{ID: taskID, Title: "moved", Status: status}, nil
}

func (s *stubService) DeleteTask(_ context.Context, taskID int64) error {
	s.deleted = append(s.deleted, taskID)
	return nil
}

func (s *stubService) ListComments(context.Context, int64) ([]domain.Comment, error) {
	return nil, nil
}

func (s *stubService) AddComment(_ context.Context, taskID int64, author, text string) (domain.Comment, error) {
	s.lastAuthor = author
	return domain.Comment{ID: "c-1", TaskID: taskID, Author: author, Text: text}, nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()
	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds an MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "lanes-test",
				"version": "1.0.0",
			},
		},
	}
}

// newTestServer starts one MCP adapter over the stub service.
func newTestServer(t *testing.T, svc *stubService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, svc)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

func TestNewHandlerRequiresService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error without a service")
	}
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty", got)
	}
}

func TestHandlerRegistersBoardTools(t *testing.T) {
	server := newTestServer(t, &stubService{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	names := make([]string, 0, len(toolsRaw))
	for _, raw := range toolsRaw {
		tool, _ := raw.(map[string]any)
		name, _ := tool["name"].(string)
		names = append(names, name)
	}
	for _, required := range []string{
		"lanes.list_projects",
		"lanes.list_tasks",
		"lanes.get_task",
		"lanes.move_task",
		"lanes.delete_task",
		"lanes.add_comment",
	} {
		if !slices.Contains(names, required) {
			t.Fatalf("tool list missing %q: %#v", required, names)
		}
	}
}

func TestListTasksToolFiltersByStatus(t *testing.T) {
	svc := &stubService{tasks: []domain.Task{
		{ID: 1, Title: "open", Status: domain.StatusToDo},
		{ID: 2, Title: "done", Status: domain.StatusCompleted},
	}}
	server := newTestServer(t, svc)
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "lanes.list_tasks", map[string]any{
		"project_id": 1,
		"status":     "Completed",
		"force":      true,
	}))
	text := toolResultText(t, resp.Result)
	if !strings.Contains(text, `"done"`) || strings.Contains(text, `"open"`) {
		t.Fatalf("unexpected filtered tasks %s", text)
	}
	if !svc.lastFetch.Force {
		t.Fatal("expected force flag to reach the service")
	}
}

func TestMoveAndDeleteTools(t *testing.T) {
	svc := &stubService{}
	server := newTestServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "lanes.move_task", map[string]any{
		"task_id": 7,
		"status":  "Under Review",
	}))
	if text := toolResultText(t, resp.Result); !strings.Contains(text, "Under Review") {
		t.Fatalf("unexpected move result %s", text)
	}
	if svc.lastMove != domain.StatusUnderReview {
		t.Fatalf("unexpected move status %q", svc.lastMove)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "lanes.delete_task", map[string]any{
		"task_id": 7,
	}))
	if len(svc.deleted) != 1 || svc.deleted[0] != 7 {
		t.Fatalf("unexpected deletes %#v (result %#v)", svc.deleted, resp.Result)
	}
}

func TestGetTaskToolMapsNotFound(t *testing.T) {
	server := newTestServer(t, &stubService{})
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "lanes.get_task", map[string]any{
		"task_id": 404,
	}))
	if isErr, _ := resp.Result["isError"].(bool); !isErr {
		t.Fatalf("expected tool error, got %#v", resp.Result)
	}
	if text := toolResultText(t, resp.Result); !strings.HasPrefix(text, "not_found:") {
		t.Fatalf("unexpected error text %q", text)
	}
}

func TestAddCommentTool(t *testing.T) {
	svc := &stubService{}
	server := newTestServer(t, svc)
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(7, "lanes.add_comment", map[string]any{
		"task_id": 2,
		"text":    "looks good",
		"author":  "ada",
	}))
	if text := toolResultText(t, resp.Result); !strings.Contains(text, "looks good") {
		t.Fatalf("unexpected add_comment result %s", text)
	}
	if svc.lastAuthor != "ada" {
		t.Fatalf("unexpected author %q", svc.lastAuthor)
	}
}

func TestToolResultFromErrorPrefixes(t *testing.T) {
	cases := map[string]error{
		"not_found:":       app.ErrNotFound,
		"invalid_request:": domain.ErrInvalidStatus,
		"internal_error:":  context.DeadlineExceeded,
	}
	for prefix, err := range cases {
		result := toolResultFromError(err)
		text, ok := result.Content[0].(mcp.TextContent)
		if !ok || !strings.HasPrefix(text.Text, prefix) {
			t.Fatalf("toolResultFromError(%v) = %#v, want prefix %q", err, result.Content, prefix)
		}
	}
}
