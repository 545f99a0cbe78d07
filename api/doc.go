// Package api provides the HTTP REST API for scene sessions.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "default"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Input:
//   - POST /api/sessions/{id}/events - Dispatch input events
//   - POST /api/sessions/{id}/move - Move the token ({"direction": "left"})
//   - POST /api/sessions/{id}/pan - Drag the viewport ({"dx": 10, "dy": -4})
//   - POST /api/sessions/{id}/zoom - Wheel at the anchor ({"steps": -1})
//   - POST /api/sessions/{id}/reset - Restore the configured scene
//
// Inspection:
//   - GET /api/sessions/{id}/state - Scene state
//   - GET /api/sessions/{id}/history - Token moves (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/frame.png - Rendered frame (?width=W&height=H)
//   - GET /api/sessions/{id}/cells/{col}/{row} - Cell contents
//   - GET /api/sessions/{id}/hit - Hit test (?x=X&y=Y)
//
// Configuration:
//   - GET /api/configs - List scene configurations
//   - POST /api/configs - Save a configuration
//   - GET /api/configs/{name} - Get a configuration
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id} - WebSocket live view and remote input
//
// The events endpoint accepts a single event, an array of events or an object
// with an "events" array:
//
//	[{"type":"press","x":10,"y":10},{"type":"move","x":40,"y":25},{"type":"release","x":40,"y":25}]
//
// Calls that change what is on screen broadcast the new state to the
// session's websocket clients.
//
// Errors are returned as JSON. Unknown sessions and configs map to 404,
// invalid input to 400:
//
//	{"error": "not found: session \"abc\""}
package api
