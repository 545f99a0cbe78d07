package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"tileview",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`tileview - MCP Interface

Every tool proxies to the tileview REST API.

A scene is an image surface seen through a pannable, zoomable viewport. Grid
scenes are split into cells and may carry a token that moves one cell at a
time and wraps at the edges when the scene allows it.

AVAILABLE TOOLS:
- create_session / list_sessions: manage scene sessions
- scene_state: viewport, token and counters of a session
- move_token: move the token up/down/left/right
- pan / zoom: drag the viewport or turn the wheel at its anchor
- send_events: send raw input events (press, release, move, wheel, key_press...)
- reset_scene: restore the configured scene
- move_history: list past token moves
- describe_cell / hit_test: inspect cells by grid or screen coordinates
- render_frame: get the current frame as a PNG image
- list_configs: list scene configurations`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new scene session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the scene config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active scene sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "scene_state",
		Description: "Get the current state of a scene: viewport anchor, magnification, token position and counters",
		InputSchema: sessionSchema(nil),
	}, c.handleSceneState)

	// Input
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_token",
		Description: "Move the token one cell in a direction",
		InputSchema: sessionSchema(map[string]interface{}{
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"up", "down", "left", "right"},
				"description": "Direction to move",
			},
		}, "direction"),
	}, c.handleMoveToken)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pan",
		Description: "Drag the viewport by a screen offset",
		InputSchema: sessionSchema(map[string]interface{}{
			"dx": integerProp("Horizontal offset in pixels"),
			"dy": integerProp("Vertical offset in pixels"),
		}, "dx", "dy"),
	}, c.handlePan)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "zoom",
		Description: "Turn the mouse wheel at the viewport anchor. Positive steps zoom out, negative steps zoom in.",
		InputSchema: sessionSchema(map[string]interface{}{
			"steps": integerProp("Wheel rotation"),
		}, "steps"),
	}, c.handleZoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "send_events",
		Description: `Send raw input events, e.g. [{"type":"press","x":10,"y":10},{"type":"move","x":40,"y":20},{"type":"release","x":40,"y":20}]`,
		InputSchema: sessionSchema(map[string]interface{}{
			"events": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
				},
				"description": "Input events with type, x, y, rotation and key",
			},
		}, "events"),
	}, c.handleSendEvents)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_scene",
		Description: "Reset the scene to its configured state",
		InputSchema: sessionSchema(nil),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get token move history for a session",
		InputSchema: sessionSchema(map[string]interface{}{
			"page":  integerProp("Page number"),
			"limit": integerProp("Items per page"),
		}),
	}, c.handleMoveHistory)

	// Inspection
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe a grid cell: its screen rectangle, occupied layers and whether the token is there",
		InputSchema: sessionSchema(map[string]interface{}{
			"col": integerProp("Column (0-based)"),
			"row": integerProp("Row (0-based)"),
		}, "col", "row"),
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hit_test",
		Description: "Find what is under a screen point",
		InputSchema: sessionSchema(map[string]interface{}{
			"x": integerProp("Screen X"),
			"y": integerProp("Screen Y"),
		}, "x", "y"),
	}, c.handleHitTest)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "render_frame",
		Description: "Render the current frame as a PNG image",
		InputSchema: sessionSchema(map[string]interface{}{
			"width":  integerProp("Frame width (optional)"),
			"height": integerProp("Frame height (optional)"),
		}),
	}, c.handleRenderFrame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available scene configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Run serves the tools over stdio until the client disconnects.
func (c *Client) Run() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("API error: %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(id string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	id := stringArg(args, "session_id")
	if id == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return id, nil
}

func requireInts(args map[string]interface{}, keys ...string) ([]int, *mcp.CallToolResult) {
	vals := make([]int, len(keys))
	for i, k := range keys {
		v, ok := intArg(args, k)
		if !ok {
			return nil, mcp.NewToolResultError(fmt.Sprintf("%s must be an integer", k))
		}
		vals[i] = v
	}
	return vals, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if id := stringArg(args, "config_id"); id != "" {
		body["config_id"] = id
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.State != nil {
		result += "\n" + formatState(session.State)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active sessions (%d):\n", len(response.Sessions))
	for _, s := range response.Sessions {
		fmt.Fprintf(&sb, "- %s (config: %s, last accessed %s)\n",
			s.ID, s.ConfigName, s.LastAccessedAt.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleSceneState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var state engine.State
	if err := c.apiCall(ctx, "GET", sessionPath(id, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) handleMoveToken(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	direction := stringArg(args, "direction")
	if direction == "" {
		return mcp.NewToolResultError("direction is required"), nil
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "move"), map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handlePan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	vals, errResult := requireInts(args, "dx", "dy")
	if errResult != nil {
		return errResult, nil
	}

	var result service.DispatchResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "pan"), map[string]int{"dx": vals[0], "dy": vals[1]}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDispatchResult(&result)), nil
}

func (c *Client) handleZoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	vals, errResult := requireInts(args, "steps")
	if errResult != nil {
		return errResult, nil
	}

	var result service.DispatchResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "zoom"), map[string]int{"steps": vals[0]}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDispatchResult(&result)), nil
}

func (c *Client) handleSendEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	events, ok := args["events"].([]interface{})
	if !ok || len(events) == 0 {
		return mcp.NewToolResultError("events must be a non-empty array"), nil
	}

	var result service.DispatchResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "events"), events, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDispatchResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string        `json:"message"`
		State   *engine.State `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(id, "reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := response.Message
	if response.State != nil {
		result += "\n\n" + formatState(response.State)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(id, "history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Move history (page %d/%d, %d total):\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		fmt.Fprintf(&sb, "#%d %s (%d,%d) -> (%d,%d)%s\n",
			m.MoveNumber, m.Dir, m.FromCol, m.FromRow, m.ToCol, m.ToRow, moveFlags(&m))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	vals, errResult := requireInts(args, "col", "row")
	if errResult != nil {
		return errResult, nil
	}

	var cell engine.CellInfo
	path := sessionPath(id, "cells", fmt.Sprint(vals[0]), fmt.Sprint(vals[1]))
	if err := c.apiCall(ctx, "GET", path, nil, &cell); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatCell(&cell)), nil
}

func (c *Client) handleHitTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	vals, errResult := requireInts(args, "x", "y")
	if errResult != nil {
		return errResult, nil
	}

	var hit engine.HitResult
	path := fmt.Sprintf("%s?x=%d&y=%d", sessionPath(id, "hit"), vals[0], vals[1])
	if err := c.apiCall(ctx, "GET", path, nil, &hit); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	switch {
	case !hit.Inside:
		fmt.Fprintf(&sb, "(%d,%d) is outside the surface\n", hit.X, hit.Y)
	case !hit.OnCell || hit.Cell == nil:
		fmt.Fprintf(&sb, "(%d,%d) is on the surface at local (%.1f, %.1f)\n", hit.X, hit.Y, hit.LocalX, hit.LocalY)
	default:
		fmt.Fprintf(&sb, "(%d,%d) hits cell (%d,%d)\n\n", hit.X, hit.Y, hit.Cell.Col, hit.Cell.Row)
		sb.WriteString(formatCell(hit.Cell))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleRenderFrame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	query := url.Values{}
	if w, ok := intArg(args, "width"); ok {
		query.Set("width", fmt.Sprint(w))
	}
	if h, ok := intArg(args, "height"); ok {
		query.Set("height", fmt.Sprint(h))
	}
	path := sessionPath(id, "frame.png")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := c.do(ctx, "GET", path, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read frame: %v", err)), nil
	}

	text := fmt.Sprintf("Frame of session %s (%d bytes)", id, len(data))
	return mcp.NewToolResultImage(text, base64.StdEncoding.EncodeToString(data), "image/png"), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(configs) == 0 {
		return mcp.NewToolResultText("No configurations available"), nil
	}

	var sb strings.Builder
	sb.WriteString("Available configurations:\n")
	for _, cfg := range configs {
		fmt.Fprintf(&sb, "- %s: %s [%s", cfg.ConfigID, cfg.Name, cfg.Kind)
		if cfg.Columns > 0 {
			fmt.Fprintf(&sb, " %dx%d cells, %d layers", cfg.Columns, cfg.Rows, cfg.Layers)
		}
		fmt.Fprintf(&sb, ", %dx%d px]", cfg.Width, cfg.Height)
		if cfg.Description != "" {
			sb.WriteString(" " + cfg.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// Formatting helpers

func formatState(state *engine.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scene: %s (%s)\n", state.ConfigName, state.Kind)
	fmt.Fprintf(&sb, "Surface: %dx%d, drawn at %dx%d (magnification %.3f)\n",
		state.Width, state.Height, state.DrawableWidth, state.DrawableHeight, state.Magnification)
	fmt.Fprintf(&sb, "Anchor: (%d,%d)\n", state.Anchor.X, state.Anchor.Y)
	if state.Columns > 0 {
		fmt.Fprintf(&sb, "Grid: %d columns x %d rows, %d layers, cell %dx%d\n",
			state.Columns, state.Rows, state.Layers, state.CellWidth, state.CellHeight)
	}
	if t := state.Token; t != nil {
		fmt.Fprintf(&sb, "Token: (%d,%d) on layer %d, wrap h=%t v=%t\n",
			t.Col, t.Row, t.Layer, t.WrapHorizontal, t.WrapVertical)
	}
	if state.Dragging {
		sb.WriteString("Dragging: yes\n")
	}
	fmt.Fprintf(&sb, "Events: %d, redraws: %d, moves: %d\n", state.Events, state.Redraws, state.TotalMoves)
	if m := state.LastMove; m != nil {
		fmt.Fprintf(&sb, "Last move: %s (%d,%d) -> (%d,%d)%s\n",
			m.Dir, m.FromCol, m.FromRow, m.ToCol, m.ToRow, moveFlags(m))
	}
	return sb.String()
}

func moveFlags(m *engine.MoveEntry) string {
	switch {
	case m.Blocked:
		return " [blocked]"
	case m.Wrapped:
		return " [wrapped]"
	}
	return ""
}

func formatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder
	sb.WriteString(result.Message)
	sb.WriteString("\n")
	if result.State != nil {
		sb.WriteString("\n")
		sb.WriteString(formatState(result.State))
	}
	return sb.String()
}

func formatDispatchResult(result *service.DispatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dispatched %d events, %d redraws\n", result.Dispatched, result.Redraws)
	if result.Truncated {
		fmt.Fprintf(&sb, "Truncated at %d events\n", result.Limit)
	}
	if result.State != nil {
		sb.WriteString("\n")
		sb.WriteString(formatState(result.State))
	}
	return sb.String()
}

func formatCell(cell *engine.CellInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cell (%d,%d)\n", cell.Col, cell.Row)
	fmt.Fprintf(&sb, "Screen: (%d,%d) size %dx%d\n", cell.Screen.X, cell.Screen.Y, cell.Size.X, cell.Size.Y)
	fmt.Fprintf(&sb, "Topmost layer: %d\n", cell.TopmostLayer)
	fmt.Fprintf(&sb, "Token here: %t\n", cell.HasToken)
	for _, l := range cell.Layers {
		status := "empty"
		if l.Occupied {
			status = fmt.Sprintf("bitmap %d", l.BitmapID)
		}
		if l.IsToken {
			status += " (token)"
		}
		fmt.Fprintf(&sb, "  layer %d: %s\n", l.Layer, status)
	}
	return sb.String()
}
