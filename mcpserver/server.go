// Package mcpserver exposes job search as Model Context Protocol tools over
// stdio, so assistants can query the corpus directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/poiesic/jobsift/search"
)

const (
	ServerName = "jobsift"

	ToolSearchJobs      = "search_jobs"
	ToolInvalidateCache = "invalidate_cache"
)

// ErrBackendRequired is returned when no backend is given.
var ErrBackendRequired = errors.New("backend required")

// Backend is the engine the tools call. *jobsift.Service implements it.
type Backend interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
	Invalidate(ctx context.Context) error
}

// Server holds the MCP server and its tools.
type Server struct {
	backend Backend
	mcp     *server.MCPServer
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithVersion sets the version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) error {
		s.version = version
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New registers the search_jobs and invalidate_cache tools.
func New(backend Backend, opts ...Option) (*Server, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	s := &Server{
		backend: backend,
		version: "dev",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "mcp")

	s.mcp = server.NewMCPServer(ServerName, s.version, server.WithToolCapabilities(false))

	s.mcp.AddTool(mcp.NewTool(ToolSearchJobs,
		mcp.WithDescription("Semantic job search. Location, company stage, funding and size mentioned in the query narrow the results; optional filters narrow them further."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query, e.g. \"machine learning startups in Austin\"")),
		mcp.WithArray("locations", mcp.Description("Keep jobs whose location contains any of these"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("industries", mcp.Description("Keep jobs at companies in any of these industries"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("experience_level", mcp.Description("entry, mid, senior, lead or executive")),
		mcp.WithBoolean("remote", mcp.Description("Only remote (true) or only on-site (false) jobs")),
		mcp.WithNumber("salary_min", mcp.Description("Lowest acceptable salary")),
		mcp.WithNumber("salary_max", mcp.Description("Highest acceptable salary")),
	), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool(ToolInvalidateCache,
		mcp.WithDescription("Drop cached job data and embeddings; the next search reloads and re-embeds the corpus"),
	), s.handleInvalidate)

	return s, nil
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC over in and out until ctx is done or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.logger.Info("serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filters, err := toolFilters(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.backend.Search(ctx, search.Request{Query: query, Filters: filters})
	if err != nil {
		s.logger.Warn("search tool failed", "query", query, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(resp.Explanation),
			mcp.NewTextContent(string(data)),
		},
	}, nil
}

func (s *Server) handleInvalidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.backend.Invalidate(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalidate failed: %v", err)), nil
	}
	return mcp.NewToolResultText("Cache invalidated. The next search reloads job data."), nil
}

// toolFilters reads the optional filter arguments. Nil means none were given.
func toolFilters(args map[string]any) (*search.Filters, error) {
	var (
		f   search.Filters
		set bool
	)
	for name, dst := range map[string]*[]string{"locations": &f.Locations, "industries": &f.Industries} {
		values, err := stringList(args[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(values) > 0 {
			*dst = values
			set = true
		}
	}
	if v, ok := args["experience_level"].(string); ok && strings.TrimSpace(v) != "" {
		f.ExperienceLevel = strings.TrimSpace(v)
		set = true
	}
	if v, ok := args["remote"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("remote must be a boolean")
		}
		f.Remote = &b
		set = true
	}
	for name, dst := range map[string]**int{"salary_min": &f.SalaryMin, "salary_max": &f.SalaryMax} {
		v, ok := args[name]
		if !ok || v == nil {
			continue
		}
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%s must be a number", name)
		}
		i := int(n)
		*dst = &i
		set = true
	}
	if !set {
		return nil, nil
	}
	return &f, nil
}

func stringList(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return []string{v}, nil
		}
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings")
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings")
	}
}
