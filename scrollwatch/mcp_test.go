package scrollwatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "scrollwatch-test", Version: "0.1.0"}

// mcpSession creates a detached Watcher, registers MCP tools, and returns a
// connected client session that can call tools end-to-end.
func mcpSession(t *testing.T) (*Watcher, *mcp.ClientSession) {
	t.Helper()
	w := New(testConfig(), testLogger())

	srv := mcp.NewServer(testMCPImpl, nil)
	w.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()

	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	return w, session
}

// callTool invokes a tool and returns the JSON text from the first TextContent.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text
}

func TestMCP_Status(t *testing.T) {
	_, session := mcpSession(t)

	text := callTool(t, session, "scrollwatch_status", map[string]any{})

	var st Status
	if err := json.Unmarshal([]byte(text), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.Enabled {
		t.Error("should start disabled")
	}
	if st.DPRMode != "off" {
		t.Errorf("dpr_mode = %q, want off", st.DPRMode)
	}
}

func TestMCP_EnableDisable(t *testing.T) {
	w, session := mcpSession(t)

	text := callTool(t, session, "scrollwatch_enable", map[string]any{})
	var st Status
	if err := json.Unmarshal([]byte(text), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !st.Enabled || !w.Status().Enabled {
		t.Fatal("enable tool had no effect")
	}

	callTool(t, session, "scrollwatch_disable", map[string]any{})
	if w.Status().Enabled {
		t.Fatal("disable tool had no effect")
	}
}

func TestMCP_UpdateGrid(t *testing.T) {
	w, session := mcpSession(t)

	callTool(t, session, "scrollwatch_update_grid", map[string]any{
		"cards":   48,
		"columns": 4,
	})

	// The grid lands in the next report; drive a few samples to build one.
	w.Enable(context.Background())
	unsub := w.activity.Subscribe(w.onActivity)
	defer unsub()
	w.scrollSrc.fire()
	waitFor(t, w.activity.Active, "signal never activated")
	for i := 0; i <= 5; i++ {
		w.sampler.OnFrame(float64(i)*16, float64(i)*10)
	}

	text := callTool(t, session, "scrollwatch_report", map[string]any{})
	var rep struct {
		Grid struct {
			Cards   int `json:"cards"`
			Columns int `json:"columns"`
		} `json:"grid"`
		Frames int `json:"frames"`
	}
	if err := json.Unmarshal([]byte(text), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.Grid.Cards != 48 || rep.Grid.Columns != 4 {
		t.Errorf("grid = %+v, want 48/4", rep.Grid)
	}
	if rep.Frames != 5 {
		t.Errorf("frames = %d, want 5", rep.Frames)
	}
}

func TestMCP_ReportEmpty(t *testing.T) {
	_, session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "scrollwatch_report",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	// GetError always returns nil on clients; IsError carries the tool
	// error across the wire.
	if !result.IsError {
		t.Fatal("expected tool error with empty buffer")
	}
}
