package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/service"
	"github.com/wricardo/tileview/game/surface"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func sampleState() *engine.State {
	return &engine.State{
		ConfigName:     "Demo",
		Kind:           "layered_grid",
		Anchor:         engine.Point{X: 500, Y: 500},
		Width:          300,
		Height:         200,
		Magnification:  1,
		DrawableWidth:  300,
		DrawableHeight: 200,
		Columns:        3,
		Rows:           2,
		Layers:         2,
		CellWidth:      100,
		CellHeight:     100,
		Token:          &engine.TokenState{Col: 2, Row: 0, Layer: 1, WrapHorizontal: true, WrapVertical: true},
		Events:         3,
		Redraws:        2,
		TotalMoves:     2,
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			json.NewEncoder(w).Encode(map[string]interface{}{"config_name": "Demo", "redraws": 4})
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid input: bad direction"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var state engine.State
	if err := client.apiCall(ctx, "GET", "/ok", nil, &state); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if state.ConfigName != "Demo" || state.Redraws != 4 {
		t.Errorf("Unexpected decoded state %+v", state)
	}

	err := client.apiCall(ctx, "GET", "/bad", nil, nil)
	if err == nil || err.Error() != "invalid input: bad direction" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall(ctx, "GET", "/boom", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error: 500") {
		t.Errorf("Expected status error, got %v", err)
	}
}

func TestClient_apiCall_ConnectionError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, nil); err == nil {
		t.Error("Expected connection error")
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "test-session-123",
			ConfigName: "repeat",
			State:      sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]interface{}{
		"config_id": "repeat",
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "test-session-123") || !strings.Contains(text, "Token: (2,0)") {
		t.Errorf("Unexpected result: %s", text)
	}
	if gotBody["config_id"] != "repeat" {
		t.Errorf("Expected config_id to be forwarded, got %v", gotBody)
	}
}

func TestClient_toolsProxyRequests(t *testing.T) {
	type call struct {
		method string
		path   string
		query  string
		body   string
	}
	var last call

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		last = call{r.Method, r.URL.Path, r.URL.RawQuery, strings.TrimSpace(string(body))}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/move"):
			json.NewEncoder(w).Encode(service.MoveResult{
				Success: true,
				Message: "Moved right",
				Move:    &engine.MoveEntry{Move: surface.Move{Dir: "right", FromCol: 1, ToCol: 2}, MoveNumber: 2},
				State:   sampleState(),
			})
		case strings.HasSuffix(r.URL.Path, "/state"):
			json.NewEncoder(w).Encode(sampleState())
		case strings.HasSuffix(r.URL.Path, "/history"):
			json.NewEncoder(w).Encode(service.HistoryResponse{
				Moves: []engine.MoveEntry{
					{Move: surface.Move{Dir: "right", FromCol: 2, ToCol: 0, Wrapped: true}, MoveNumber: 3},
				},
				TotalMoves: 3, Page: 1, TotalPages: 1,
			})
		case strings.Contains(r.URL.Path, "/cells/"):
			json.NewEncoder(w).Encode(engine.CellInfo{Col: 1, Row: 0, HasToken: true,
				Layers: []engine.LayerInfo{{Layer: 0, Occupied: true, BitmapID: 1}, {Layer: 1, Occupied: true, BitmapID: 2, IsToken: true}}})
		case strings.HasSuffix(r.URL.Path, "/hit"):
			json.NewEncoder(w).Encode(engine.HitResult{X: 10, Y: 20, Inside: true, OnCell: true, Cell: &engine.CellInfo{Col: 0, Row: 0}})
		case strings.HasSuffix(r.URL.Path, "/reset"):
			json.NewEncoder(w).Encode(map[string]interface{}{"message": "Scene reset successfully", "state": sampleState()})
		default:
			json.NewEncoder(w).Encode(service.DispatchResult{Dispatched: 3, Redraws: 1, Redraw: true, State: sampleState()})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	tests := []struct {
		name     string
		handler  func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args     map[string]interface{}
		expected call
		contains string
	}{
		{
			name:     "scene_state",
			handler:  client.handleSceneState,
			args:     map[string]interface{}{"session_id": "s1"},
			expected: call{method: "GET", path: "/api/sessions/s1/state"},
			contains: "Grid: 3 columns x 2 rows",
		},
		{
			name:     "move_token",
			handler:  client.handleMoveToken,
			args:     map[string]interface{}{"session_id": "s1", "direction": "right"},
			expected: call{method: "POST", path: "/api/sessions/s1/move", body: `{"direction":"right"}`},
			contains: "Moved right",
		},
		{
			name:     "pan",
			handler:  client.handlePan,
			args:     map[string]interface{}{"session_id": "s1", "dx": float64(30), "dy": float64(-5)},
			expected: call{method: "POST", path: "/api/sessions/s1/pan", body: `{"dx":30,"dy":-5}`},
			contains: "Dispatched 3 events",
		},
		{
			name:     "zoom",
			handler:  client.handleZoom,
			args:     map[string]interface{}{"session_id": "s1", "steps": float64(-1)},
			expected: call{method: "POST", path: "/api/sessions/s1/zoom", body: `{"steps":-1}`},
			contains: "1 redraws",
		},
		{
			name:    "send_events",
			handler: client.handleSendEvents,
			args: map[string]interface{}{"session_id": "s1", "events": []interface{}{
				map[string]interface{}{"type": "key_press", "key": "left"},
			}},
			expected: call{method: "POST", path: "/api/sessions/s1/events", body: `[{"key":"left","type":"key_press"}]`},
			contains: "Dispatched",
		},
		{
			name:     "reset_scene",
			handler:  client.handleReset,
			args:     map[string]interface{}{"session_id": "s1"},
			expected: call{method: "POST", path: "/api/sessions/s1/reset"},
			contains: "Scene reset successfully",
		},
		{
			name:     "move_history",
			handler:  client.handleMoveHistory,
			args:     map[string]interface{}{"session_id": "s1", "page": float64(1), "limit": float64(5)},
			expected: call{method: "GET", path: "/api/sessions/s1/history", query: "limit=5&page=1"},
			contains: "#3 right (2,0) -> (0,0) [wrapped]",
		},
		{
			name:     "describe_cell",
			handler:  client.handleDescribeCell,
			args:     map[string]interface{}{"session_id": "s1", "col": float64(1), "row": float64(0)},
			expected: call{method: "GET", path: "/api/sessions/s1/cells/1/0"},
			contains: "layer 1: bitmap 2 (token)",
		},
		{
			name:     "hit_test",
			handler:  client.handleHitTest,
			args:     map[string]interface{}{"session_id": "s1", "x": float64(10), "y": float64(20)},
			expected: call{method: "GET", path: "/api/sessions/s1/hit", query: "x=10&y=20"},
			contains: "hits cell (0,0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last = call{}
			result, err := tt.handler(context.Background(), callRequest(tt.name, tt.args))
			if err != nil {
				t.Fatalf("Handler returned error: %v", err)
			}
			if result.IsError {
				t.Fatalf("Unexpected tool error: %s", resultText(t, result))
			}
			if last != tt.expected {
				t.Errorf("Expected request %+v, got %+v", tt.expected, last)
			}
			if text := resultText(t, result); !strings.Contains(text, tt.contains) {
				t.Errorf("Expected %q in result, got: %s", tt.contains, text)
			}
		})
	}
}

func TestClient_argumentValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
		message string
	}{
		{"missing session", client.handleSceneState, map[string]interface{}{}, "session_id is required"},
		{"missing direction", client.handleMoveToken, map[string]interface{}{"session_id": "s"}, "direction is required"},
		{"non-integer dx", client.handlePan, map[string]interface{}{"session_id": "s", "dx": "far", "dy": float64(1)}, "dx must be an integer"},
		{"missing steps", client.handleZoom, map[string]interface{}{"session_id": "s"}, "steps must be an integer"},
		{"empty events", client.handleSendEvents, map[string]interface{}{"session_id": "s", "events": []interface{}{}}, "non-empty array"},
		{"missing row", client.handleDescribeCell, map[string]interface{}{"session_id": "s", "col": float64(0)}, "row must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(context.Background(), callRequest("tool", tt.args))
			if err != nil {
				t.Fatalf("Handler returned error: %v", err)
			}
			if !result.IsError {
				t.Error("Expected tool error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.message) {
				t.Errorf("Expected %q, got %s", tt.message, text)
			}
		})
	}
}

func TestClient_renderFrame(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/s1/frame.png" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleRenderFrame(context.Background(), callRequest("render_frame", map[string]interface{}{
		"session_id": "s1",
		"width":      float64(64),
		"height":     float64(48),
	}))
	if err != nil {
		t.Fatalf("renderFrame failed: %v", err)
	}
	if gotQuery != "height=48&width=64" {
		t.Errorf("Unexpected query %q", gotQuery)
	}

	var image *mcp.ImageContent
	for _, content := range result.Content {
		if img, ok := content.(mcp.ImageContent); ok {
			image = &img
		}
	}
	if image == nil {
		t.Fatal("Expected image content")
	}
	if image.MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %s", image.MIMEType)
	}
	if image.Data != base64.StdEncoding.EncodeToString(png) {
		t.Error("Expected base64 PNG data")
	}

	result, _ = client.handleRenderFrame(context.Background(), callRequest("render_frame", map[string]interface{}{
		"session_id": "missing",
	}))
	if !result.IsError {
		t.Error("Expected error result for unknown session")
	}
}

func TestClient_listTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/configs":
			json.NewEncoder(w).Encode([]*service.ConfigInfo{
				{ConfigID: "default", Name: "Demo", Kind: "layered_grid", Columns: 3, Rows: 2, Layers: 2, Width: 300, Height: 200},
				{ConfigID: "flat", Name: "Flat", Kind: "flat", Width: 20, Height: 20, Description: "A blue square"},
			})
		case "/api/sessions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"count":    1,
				"sessions": []*service.SessionInfo{{ID: "abc", ConfigName: "default"}},
			})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, _ := client.handleListConfigs(context.Background(), callRequest("list_configs", nil))
	text := resultText(t, result)
	if !strings.Contains(text, "default: Demo [layered_grid 3x2 cells, 2 layers, 300x200 px]") {
		t.Errorf("Unexpected configs listing: %s", text)
	}
	if !strings.Contains(text, "flat: Flat [flat, 20x20 px] A blue square") {
		t.Errorf("Unexpected configs listing: %s", text)
	}

	result, _ = client.handleListSessions(context.Background(), callRequest("list_sessions", nil))
	if text := resultText(t, result); !strings.Contains(text, "- abc (config: default") {
		t.Errorf("Unexpected sessions listing: %s", text)
	}
}

func TestFormatState(t *testing.T) {
	state := sampleState()
	state.Dragging = true
	state.LastMove = &engine.MoveEntry{Move: surface.Move{Dir: "up", FromCol: 2, FromRow: 0, ToCol: 2, ToRow: 0, Blocked: true}}

	text := formatState(state)
	expected := []string{
		"Scene: Demo (layered_grid)",
		"Surface: 300x200, drawn at 300x200 (magnification 1.000)",
		"Anchor: (500,500)",
		"Token: (2,0) on layer 1, wrap h=true v=true",
		"Dragging: yes",
		"Events: 3, redraws: 2, moves: 2",
		"Last move: up (2,0) -> (2,0) [blocked]",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in state, got:\n%s", want, text)
		}
	}

	flat := formatState(&engine.State{ConfigName: "Flat", Kind: "flat", Magnification: 1})
	if strings.Contains(flat, "Grid:") || strings.Contains(flat, "Token:") {
		t.Errorf("Flat scene should not list grid or token: %s", flat)
	}
}

func TestFormatDispatchResult_Truncated(t *testing.T) {
	text := formatDispatchResult(&service.DispatchResult{Dispatched: 500, Truncated: true, Limit: 500})
	if !strings.Contains(text, "Truncated at 500 events") {
		t.Errorf("Expected truncation note, got %s", text)
	}
}
