// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, service common.BoardService) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerProjectTools(mcpSrv, service)
	registerTaskTools(mcpSrv, service)
	registerCommentTools(mcpSrv, service)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "lanes"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = "/" + strings.Trim(strings.TrimSpace(cfg.EndpointPath), "/")
	if cfg.EndpointPath == "/" {
		cfg.EndpointPath = "/mcp"
	}
	return cfg
}

func registerProjectTools(srv *mcpserver.MCPServer, service common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"lanes.list_projects",
			mcp.WithDescription("List every project on the board."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projects, err := service.ListProjects(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			out := make([]common.ProjectView, 0, len(projects))
			for _, p := range projects {
				out = append(out, common.ProjectViewFrom(p))
			}
			return jsonResult("list_projects", map[string]any{"projects": out})
		},
	)
}

func registerTaskTools(srv *mcpserver.MCPServer, service common.BoardService) {
	statuses := make([]string, 0, 4)
	for _, status := range domain.Statuses() {
		statuses = append(statuses, string(status))
	}

	srv.AddTool(
		mcp.NewTool(
			"lanes.list_tasks",
			mcp.WithDescription("List the tasks of one project with their lane status."),
			mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithString("status", mcp.Description("Only return tasks in this lane"), mcp.Enum(statuses...)),
			mcp.WithBoolean("force", mcp.Description("Bypass the task list cache")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireInt("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			tasks, err := service.ListTasks(ctx, int64(projectID), app.FetchOptions{Force: req.GetBool("force", false)})
			if err != nil {
				return toolResultFromError(err), nil
			}
			if status := req.GetString("status", ""); status != "" {
				filtered := make([]domain.Task, 0, len(tasks))
				for _, task := range tasks {
					if string(task.Status) == status {
						filtered = append(filtered, task)
					}
				}
				tasks = filtered
			}
			return jsonResult("list_tasks", map[string]any{"tasks": common.TaskViewsFrom(tasks)})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"lanes.get_task",
			mcp.WithDescription("Return the detail record of one task."),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireInt("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := service.GetTaskDetail(ctx, int64(taskID))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_task", common.TaskViewFrom(task))
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"lanes.move_task",
			mcp.WithDescription("Move one task to another lane."),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("status", mcp.Required(), mcp.Description("Target lane"), mcp.Enum(statuses...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireInt("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			status, err := req.RequireString("status")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := service.UpdateTaskStatus(ctx, int64(taskID), domain.Status(status))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_task", common.TaskViewFrom(task))
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"lanes.delete_task",
			mcp.WithDescription("Delete one task and its comments."),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireInt("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := service.DeleteTask(ctx, int64(taskID)); err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("delete_task", map[string]any{"deleted": taskID})
		},
	)
}

func registerCommentTools(srv *mcpserver.MCPServer, service common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"lanes.add_comment",
			mcp.WithDescription("Append a comment to one task."),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
			mcp.WithString("author", mcp.Description("Comment author")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireInt("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			text, err := req.RequireString("text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			comment, err := service.AddComment(ctx, int64(taskID), req.GetString("author", ""), text)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("add_comment", common.CommentViewFrom(comment))
		},
	)
}

// jsonResult encodes one structured tool payload.
func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError("unknown error")
	}
	if errors.Is(err, app.ErrNotFound) {
		return mcp.NewToolResultError("not_found: " + err.Error())
	}
	if _, code := common.ErrorStatus(err); code == "invalid_request" {
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	}
	return mcp.NewToolResultError("internal_error: " + err.Error())
}
