// Package httpapi provides the REST HTTP adapter for the board service.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size.
const maxRequestBodyBytes = "1M"

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Handler serves the versioned API mounted under the configured API endpoint.
type Handler struct {
	echo    *echo.Echo
	service common.BoardService
	logger  *log.Logger
}

// NewHandler constructs the echo router for one board service.
func NewHandler(service common.BoardService, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}

	h := &Handler{echo: e, service: service, logger: logger}
	e.HTTPErrorHandler = h.handleError
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.BodyLimit(maxRequestBodyBytes))
	e.Use(h.logRequests)

	e.GET("/projects", h.listProjects)
	e.GET("/projects/:id/tasks", h.listTasks)
	e.POST("/projects/:id/tasks", h.createTask)
	e.GET("/projects/:id/teams", h.listTeams)
	e.GET("/tasks/:id", h.getTask)
	e.PATCH("/tasks/:id/status", h.updateStatus)
	e.DELETE("/tasks/:id", h.deleteTask)
	e.GET("/tasks/:id/comments", h.listComments)
	e.POST("/tasks/:id/comments", h.addComment)
	return h
}

// ServeHTTP routes one versioned API request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.echo.ServeHTTP(w, r)
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Points      *int       `json:"points"`
	Tags        string     `json:"tags"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	FilesURL    []string   `json:"files_url"`
	FilesName   []string   `json:"files_name"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type addCommentRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

func (h *Handler) listProjects(c echo.Context) error {
	projects, err := h.service.ListProjects(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]common.ProjectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, common.ProjectViewFrom(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": out})
}

func (h *Handler) listTasks(c echo.Context) error {
	projectID, err := pathID(c)
	if err != nil {
		return err
	}
	force, _ := strconv.ParseBool(c.QueryParam("force"))
	tasks, err := h.service.ListTasks(c.Request().Context(), projectID, app.FetchOptions{Force: force})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": common.TaskViewsFrom(tasks)})
}

func (h *Handler) createTask(c echo.Context) error {
	projectID, err := pathID(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	var status domain.Status
	if strings.TrimSpace(req.Status) != "" {
		status, err = domain.ParseStatus(req.Status)
		if err != nil {
			return err
		}
	}
	task, err := h.service.CreateTask(c.Request().Context(), app.CreateTaskInput{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    domain.Priority(req.Priority),
		Points:      req.Points,
		Tags:        req.Tags,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		FilesURL:    req.FilesURL,
		FilesName:   req.FilesName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, common.TaskViewFrom(task))
}

func (h *Handler) listTeams(c echo.Context) error {
	projectID, err := pathID(c)
	if err != nil {
		return err
	}
	members, err := h.service.ListProjectTeams(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	out := make([]common.TeamMemberView, 0, len(members))
	for _, m := range members {
		out = append(out, common.TeamMemberViewFrom(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"team": out})
}

func (h *Handler) getTask(c echo.Context) error {
	taskID, err := pathID(c)
	if err != nil {
		return err
	}
	task, err := h.service.GetTaskDetail(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.TaskViewFrom(task))
}

func (h *Handler) updateStatus(c echo.Context) error {
	taskID, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	task, err := h.service.UpdateTaskStatus(c.Request().Context(), taskID, domain.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.TaskViewFrom(task))
}

func (h *Handler) deleteTask(c echo.Context) error {
	taskID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTask(c.Request().Context(), taskID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listComments(c echo.Context) error {
	taskID, err := pathID(c)
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	out := make([]common.CommentView, 0, len(comments))
	for _, comment := range comments {
		out = append(out, common.CommentViewFrom(comment))
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": out})
}

func (h *Handler) addComment(c echo.Context) error {
	taskID, err := pathID(c)
	if err != nil {
		return err
	}
	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.Request().Context(), taskID, req.Author, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, common.CommentViewFrom(comment))
}

// pathID parses the ":id" path parameter.
func pathID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q must be a positive integer", common.ErrInvalidRequest, raw)
	}
	return id, nil
}

// handleError writes every failure as one JSON error envelope.
func (h *Handler) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, code := common.ErrorStatus(err)
	message := err.Error()

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		code = codeForStatus(httpErr.Code)
		message = fmt.Sprint(httpErr.Message)
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("api request failed", "path", c.Request().URL.Path, "err", err)
		message = "internal error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, ErrorEnvelope{Error: APIError{Code: code, Message: message}})
}

// codeForStatus maps router-level failures to stable error codes.
func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return "invalid_request"
	default:
		return "internal_error"
	}
}

// logRequests records one debug line per request with its request id.
func (h *Handler) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		h.logger.Debug(
			"api request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"duration", time.Since(start),
		)
		return nil
	}
}

// sonicSerializer encodes echo JSON responses and request bodies with sonic.
type sonicSerializer struct{}

// Serialize writes one JSON value to the response.
func (sonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize reads one JSON request body.
func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	dec := sonic.ConfigStd.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json body").SetInternal(err)
	}
	return nil
}
