package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	serveradapter "github.com/evanschultz/lanes/internal/adapters/server"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// serveCommandRunner starts the HTTP+MCP serve flow; tests replace it.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// cliDateLayout is the date format accepted by --start and --due.
const cliDateLayout = "2006-01-02"

// withEnv opens the runtime for command, runs fn and closes everything.
func withEnv(cmd *cobra.Command, opts *rootOptions, command string, fn func(context.Context, *runtimeEnv) error) error {
	ctx := cmd.Context()
	env, err := opts.open(ctx, command, false)
	if err != nil {
		return err
	}
	defer env.Close()
	env.logger.Info("command flow start", "command", command)
	if err := fn(ctx, env); err != nil {
		env.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	env.logger.Info("command flow complete", "command", command)
	return nil
}

func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			return nil
		},
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		bind        string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, "serve", func(ctx context.Context, env *runtimeEnv) error {
				cfg := env.cfg.Server
				if cmd.Flags().Changed("bind") {
					cfg.Bind = bind
				}
				if cmd.Flags().Changed("api-endpoint") {
					cfg.APIEndpoint = apiEndpoint
				}
				if cmd.Flags().Changed("mcp-endpoint") {
					cfg.MCPEndpoint = mcpEndpoint
				}
				return serveCommandRunner(ctx, serveradapter.Config{
					HTTPBind:      cfg.Bind,
					APIEndpoint:   cfg.APIEndpoint,
					MCPEndpoint:   cfg.MCPEndpoint,
					ServerName:    opts.appName,
					ServerVersion: version,
				}, serveradapter.Dependencies{
					Service: env.svc,
					Logger:  env.logger.Handoff(),
				})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		outPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every project, task and comment to a snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshotFormat, err := resolveSnapshotFormat(format, outPath)
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, "export", func(ctx context.Context, env *runtimeEnv) error {
				snap, err := env.svc.ExportSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("export snapshot: %w", err)
				}
				if outPath == "-" {
					return app.EncodeSnapshot(cmd.OutOrStdout(), snap, snapshotFormat)
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				if err := app.EncodeSnapshot(file, snap, snapshotFormat); err != nil {
					_ = file.Close()
					return err
				}
				return file.Close()
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension, else json)")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var (
		inPath string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			snapshotFormat, err := resolveSnapshotFormat(format, inPath)
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, "import", func(ctx context.Context, env *runtimeEnv) error {
				file, err := os.Open(inPath)
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				defer func() { _ = file.Close() }()
				snap, err := app.DecodeSnapshot(file, snapshotFormat)
				if err != nil {
					return err
				}
				if err := env.svc.ImportSnapshot(ctx, snap); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension, else json)")
	return cmd
}

// resolveSnapshotFormat prefers an explicit flag, then the file extension.
func resolveSnapshotFormat(flagValue, path string) (app.SnapshotFormat, error) {
	if strings.TrimSpace(flagValue) != "" {
		return app.ParseSnapshotFormat(flagValue)
	}
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		return app.SnapshotFormatYAML, nil
	}
	return app.SnapshotFormatJSON, nil
}

func newProjectCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	var description string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, "project add", func(ctx context.Context, env *runtimeEnv) error {
				project, err := env.svc.CreateProject(ctx, args[0], description)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created project %d %s\n", project.ID, project.Name)
				return nil
			})
		},
	}
	add.Flags().StringVar(&description, "description", "", "project description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, "project list", func(ctx context.Context, env *runtimeEnv) error {
				projects, err := env.svc.ListProjects(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), projectTable(projects))
				return nil
			})
		},
	}

	var member domain.TeamMember
	memberAdd := &cobra.Command{
		Use:   "member-add USERNAME",
		Short: "Add a user to a project team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			member.Username = args[0]
			return withEnv(cmd, opts, "project member-add", func(ctx context.Context, env *runtimeEnv) error {
				if err := env.svc.AddTeamMember(ctx, member); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s to project %d\n", member.Username, member.ProjectID)
				return nil
			})
		},
	}
	memberAdd.Flags().Int64Var(&member.ProjectID, "project", 0, "project id")
	memberAdd.Flags().Int64Var(&member.UserID, "user-id", 0, "user id")
	memberAdd.Flags().StringVar(&member.Role, "role", "member", "team role")

	cmd.AddCommand(add, list, memberAdd)
	return cmd
}

// projectTable renders projects as a bordered table.
func projectTable(projects []domain.Project) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("239"))).
		Headers("ID", "NAME", "DESCRIPTION").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, p := range projects {
		t.Row(strconv.FormatInt(p.ID, 10), p.Name, p.Description)
	}
	return t.Render()
}

func newTaskCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	var (
		in        app.CreateTaskInput
		status    string
		priority  string
		points    int
		startDate string
		dueDate   string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedStatus, err := domain.ParseStatus(status)
			if err != nil {
				return fmt.Errorf("--status %q: %w", status, err)
			}
			in.Status = parsedStatus
			in.Priority = domain.Priority(strings.TrimSpace(priority))
			if cmd.Flags().Changed("points") {
				in.Points = &points
			}
			if in.StartDate, err = parseCLIDate(startDate); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if in.DueDate, err = parseCLIDate(dueDate); err != nil {
				return fmt.Errorf("--due: %w", err)
			}
			return withEnv(cmd, opts, "task add", func(ctx context.Context, env *runtimeEnv) error {
				task, err := env.svc.CreateTask(ctx, in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created task %d in %s\n", task.ID, task.Status)
				return nil
			})
		},
	}
	add.Flags().Int64Var(&in.ProjectID, "project", 0, "project id")
	add.Flags().StringVar(&in.Title, "title", "", "task title")
	add.Flags().StringVar(&in.Description, "description", "", "markdown description")
	add.Flags().StringVar(&status, "status", string(domain.StatusToDo), "lane status")
	add.Flags().StringVar(&priority, "priority", "", "Urgent, High, Medium or Low")
	add.Flags().IntVar(&points, "points", 0, "story points")
	add.Flags().StringVar(&in.Tags, "tags", "", "comma-separated tags")
	add.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	add.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")
	add.Flags().StringArrayVar(&in.FilesURL, "file", nil, "attachment URL (repeatable)")
	add.Flags().StringArrayVar(&in.FilesName, "file-name", nil, "attachment display name, paired with --file by position")
	_ = add.MarkFlagRequired("project")
	_ = add.MarkFlagRequired("title")

	var (
		moveTaskID int64
		moveStatus string
	)
	move := &cobra.Command{
		Use:   "move",
		Short: "Change a task's lane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedStatus, err := domain.ParseStatus(moveStatus)
			if err != nil {
				return fmt.Errorf("--status %q: %w", moveStatus, err)
			}
			return withEnv(cmd, opts, "task move", func(ctx context.Context, env *runtimeEnv) error {
				task, err := env.svc.UpdateTaskStatus(ctx, moveTaskID, parsedStatus)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "moved task %d to %s\n", task.ID, task.Status)
				return nil
			})
		},
	}
	move.Flags().Int64Var(&moveTaskID, "task", 0, "task id")
	move.Flags().StringVar(&moveStatus, "status", "", "lane status")
	_ = move.MarkFlagRequired("task")
	_ = move.MarkFlagRequired("status")

	cmd.AddCommand(add, move)
	return cmd
}

// parseCLIDate parses an optional YYYY-MM-DD date.
func parseCLIDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	at, err := time.Parse(cliDateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("date %q must be YYYY-MM-DD", raw)
	}
	return &at, nil
}

func newCommentCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Manage task comments",
	}

	var (
		taskID int64
		author string
	)
	add := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Comment on a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return withEnv(cmd, opts, "comment add", func(ctx context.Context, env *runtimeEnv) error {
				comment, err := env.svc.AddComment(ctx, taskID, author, text)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added comment %s to task %d\n", comment.ID, comment.TaskID)
				return nil
			})
		},
	}
	add.Flags().Int64Var(&taskID, "task", 0, "task id")
	add.Flags().StringVar(&author, "author", "", "comment author (default lanes-user)")
	_ = add.MarkFlagRequired("task")

	cmd.AddCommand(add)
	return cmd
}
