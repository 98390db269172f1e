package browser

import (
	"encoding/json"
	"testing"
)

func TestDispatch(t *testing.T) {
	var (
		gotFrame  []float64
		gotScroll []bool
		gotDPR    float64
		gotGrid   [2]int
		gotDebug  bool
		gotCmd    string
	)

	a := NewAgent(nil, AgentOptions{}, Handlers{
		OnFrame:       func(ts, offset float64) { gotFrame = []float64{ts, offset} },
		OnScroll:      func(_ float64, native bool) { gotScroll = append(gotScroll, native) },
		OnDPRChange:   func(dpr float64) { gotDPR = dpr },
		OnGrid:        func(cards, cols int) { gotGrid = [2]int{cards, cols} },
		OnDebugEnable: func() { gotDebug = true },
		OnCommand:     func(cmd string) { gotCmd = cmd },
	}, nil)

	payloads := []string{
		`{"type":"frame","ts":1234.5,"offset":880}`,
		`{"type":"scroll","offset":880,"native":true}`,
		`{"type":"scroll","offset":900,"native":false}`,
		`{"type":"dpr","dpr":1.25}`,
		`{"type":"grid","cards":48,"columns":4}`,
		`{"type":"debug","enabled":true}`,
		`{"type":"command","cmd":"report"}`,
	}
	for _, p := range payloads {
		var ev agentEvent
		if err := json.Unmarshal([]byte(p), &ev); err != nil {
			t.Fatalf("unmarshal %s: %v", p, err)
		}
		a.dispatch(ev)
	}

	if len(gotFrame) != 2 || gotFrame[0] != 1234.5 || gotFrame[1] != 880 {
		t.Errorf("frame = %v", gotFrame)
	}
	if len(gotScroll) != 2 || !gotScroll[0] || gotScroll[1] {
		t.Errorf("scroll natives = %v, want [true false]", gotScroll)
	}
	if gotDPR != 1.25 {
		t.Errorf("dpr = %v, want 1.25", gotDPR)
	}
	if gotGrid != [2]int{48, 4} {
		t.Errorf("grid = %v, want [48 4]", gotGrid)
	}
	if !gotDebug {
		t.Error("debug handler not called")
	}
	if gotCmd != "report" {
		t.Errorf("cmd = %q, want report", gotCmd)
	}
}

func TestDispatchFrameCallback(t *testing.T) {
	a := NewAgent(nil, AgentOptions{}, Handlers{}, nil)

	fired := 0
	a.mu.Lock()
	a.frameFns[7] = func() { fired++ }
	a.mu.Unlock()

	a.dispatch(agentEvent{Type: "frame_cb", ID: 7})
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	// Unknown or already-consumed ids are ignored.
	a.dispatch(agentEvent{Type: "frame_cb", ID: 7})
	a.dispatch(agentEvent{Type: "frame_cb", ID: 99})
	if fired != 1 {
		t.Fatalf("fired = %d after replays, want 1", fired)
	}
}

func TestDispatchNilHandlers(t *testing.T) {
	a := NewAgent(nil, AgentOptions{}, Handlers{}, nil)
	for _, typ := range []string{"frame", "scroll", "dpr", "grid", "debug", "command", "bogus"} {
		a.dispatch(agentEvent{Type: typ, Enabled: true})
	}
}
