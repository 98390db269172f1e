package scrollwatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/scrollscope/kit"
)

// RegisterMCP registers scrollwatch tools on an MCP server.
func (w *Watcher) RegisterMCP(srv *mcp.Server) {
	w.registerStatusTool(srv)
	w.registerEnableTool(srv)
	w.registerDisableTool(srv)
	w.registerReportTool(srv)
	w.registerUpdateGridTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func decodeNothing(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return &kit.MCPDecodeResult{Request: nil}, nil
}

// --- status ---

func (w *Watcher) registerStatusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrollwatch_status",
		Description: "Current watcher state: diagnostics on/off, scroll activity, DPR override mode, sample buffer and lifetime counters.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return w.Status(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeNothing)
}

// --- enable / disable ---

func (w *Watcher) registerEnableTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrollwatch_enable",
		Description: "Enable scroll-performance diagnostics: start frame sampling on the page.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		w.Enable(ctx)
		return w.Status(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeNothing)
}

func (w *Watcher) registerDisableTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrollwatch_disable",
		Description: "Disable scroll-performance diagnostics and stop frame sampling.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		w.Disable(ctx)
		return w.Status(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeNothing)
}

// --- report ---

func (w *Watcher) registerReportTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrollwatch_report",
		Description: "Build an on-demand performance report from the current sample buffer. The buffer is left intact.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		rep, ok := w.Report()
		if !ok {
			return nil, fmt.Errorf("no samples collected")
		}
		return rep, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeNothing)
}

// --- update_grid ---

type updateGridRequest struct {
	Cards   int `json:"cards"`
	Columns int `json:"columns"`
}

func (w *Watcher) registerUpdateGridTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrollwatch_update_grid",
		Description: "Record the card-grid cardinality (cards, columns) to annotate subsequent reports.",
		InputSchema: inputSchema(map[string]any{
			"cards":   map[string]any{"type": "integer", "description": "Number of cards in the grid"},
			"columns": map[string]any{"type": "integer", "description": "Number of columns"},
		}, []string{"cards"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*updateGridRequest)
		w.UpdateGrid(r.Cards, r.Columns)
		return map[string]string{"status": "ok"}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r updateGridRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
