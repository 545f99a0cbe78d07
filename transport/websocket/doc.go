// Package websocket provides the live view and remote input channel for
// scene sessions.
//
// A central Hub tracks clients per session. Each connection runs a read pump
// and a write pump; the hub goroutine owns all client bookkeeping.
//
// Message Protocol:
//
// Outgoing messages are JSON objects with the session ID, an event name and
// either the scene State ("state_update") or extra data ("error").
//
// Incoming frames carry input events in one of three forms and are passed to
// the hub's EventHandler:
//
//	{"type":"press","x":10,"y":20}
//	[{"type":"key_press","key":"right"},{"type":"wheel","x":5,"y":5,"rotation":1}]
//	{"events":[{"type":"release","x":30,"y":40}]}
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithEventHandler(forward))
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
package websocket
