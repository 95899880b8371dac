package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/focusorder/internal/heuristics"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/protocol"
	"github.com/mj1618/focusorder/internal/version"
)

// MCP exposes the annotation service as Model Context Protocol tools.
type MCP struct {
	svc    *Service
	logger *zap.Logger
	mcp    *mcpserver.MCPServer
}

// MCPConfig holds MCP transport settings.
type MCPConfig struct {
	Transport string
	Port      int
}

// NewMCP registers the annotate, validate and health tools.
func NewMCP(svc *Service, logger *zap.Logger) *MCP {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MCP{svc: svc, logger: logger}
	s.mcp = mcpserver.NewMCPServer("focusorder", version.Version)
	s.registerTools()
	return s
}

// Serve runs the MCP server on the configured transport until ctx is done
// (streamable-http) or stdin closes (stdio).
func (s *MCP) Serve(ctx context.Context, cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(fmt.Sprintf(":%d", cfg.Port)) }()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return httpServer.Shutdown(context.WithoutCancel(ctx))
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *MCP) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("annotate",
			mcp.WithDescription("Propose a keyboard focus order for one or more serialized UI frames. Returns YAML with the ordered focus stops per frame."),
			mcp.WithString("platform", mcp.Description("Target platform"), mcp.Enum("web", "native"), mcp.Required()),
			mcp.WithString("frames", mcp.Description("JSON array of frames {id,name,box,children}, or a single serialized tree object"), mcp.Required()),
			mcp.WithString("prompt", mcp.Description("Optional free-text hint for the model")),
		),
		s.handleAnnotate,
	)

	s.mcp.AddTool(
		mcp.NewTool("validate",
			mcp.WithDescription("Check a focus order for gaps, duplicates, missing stops and large backward jumps"),
			mcp.WithString("order", mcp.Description("JSON array of focus items {id,label,role,order,position}"), mcp.Required()),
			mcp.WithString("tree", mcp.Description("Optional serialized tree JSON used to find focusable nodes missing from the order")),
		),
		s.handleValidate,
	)

	s.mcp.AddTool(
		mcp.NewTool("health",
			mcp.WithDescription("Report service status, model name and cache backend"),
		),
		s.handleHealth,
	)
}

// resultToText serializes a tool result to YAML.
func resultToText(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("ok: false\nerror: %s", err)
	}
	return string(b)
}

func (s *MCP) handleAnnotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform := request.GetString("platform", "")
	frames := strings.TrimSpace(request.GetString("frames", ""))
	if frames == "" {
		return mcp.NewToolResultError("frames is required"), nil
	}
	body := map[string]any{
		"platform": platform,
		"prompt":   request.GetString("prompt", ""),
	}
	if strings.HasPrefix(frames, "[") {
		body["frames"] = json.RawMessage(frames)
	} else {
		body["tree"] = json.RawMessage(frames)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return mcp.NewToolResultError(resultToText(protocol.ErrorResponse(protocol.BadRequest("malformed_json")))), nil
	}

	req, err := protocol.DecodeRequest(bytes.NewReader(raw))
	if err != nil {
		return mcp.NewToolResultError(resultToText(protocol.ErrorResponse(err))), nil
	}
	resp, err := s.svc.Annotate(ctx, req)
	if err != nil {
		s.logger.Warn("mcp annotate failed", zap.Error(err))
		return mcp.NewToolResultError(resultToText(protocol.ErrorResponse(err))), nil
	}
	return mcp.NewToolResultText(resultToText(resp)), nil
}

type validateResult struct {
	OK     bool               `yaml:"ok"`
	Issues []heuristics.Issue `yaml:"issues,omitempty"`
}

func (s *MCP) handleValidate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var items []model.FocusItem
	if err := json.Unmarshal([]byte(request.GetString("order", "")), &items); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("order: %v", err)), nil
	}
	var candidates []model.NodeSnapshot
	if tree := request.GetString("tree", ""); tree != "" {
		var root model.NodeSnapshot
		if err := json.Unmarshal([]byte(tree), &root); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("tree: %v", err)), nil
		}
		candidates = heuristics.ExtractCandidates(root)
	}
	issues := heuristics.Validate(items, candidates)
	return mcp.NewToolResultText(resultToText(validateResult{OK: len(issues) == 0, Issues: issues})), nil
}

func (s *MCP) handleHealth(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(resultToText(s.svc.Health())), nil
}
