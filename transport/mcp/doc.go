// Package mcp exposes scene sessions to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: each tool calls the REST API served by the api
// package, so agents share sessions with browsers and websocket viewers.
//
// Tools:
//   - create_session, list_sessions, scene_state
//   - move_token, pan, zoom, send_events, reset_scene, move_history
//   - describe_cell, hit_test
//   - render_frame: returns the current frame as an image result
//   - list_configs
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.Run(); err != nil {
//		log.Fatal(err)
//	}
package mcp
