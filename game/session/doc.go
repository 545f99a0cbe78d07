// Package session provides session management for network-hosted scenes.
//
// Each session owns one engine.SceneEngine built from a scene config. The
// manager stores sessions under case-insensitive IDs, tracks last access for
// expiry and closes engines when sessions are removed.
//
// Session Identifiers:
//
// Generated IDs are the first eight characters of a random UUID. Callers may
// also pick their own IDs with Create or GetOrCreate.
//
// Usage:
//
//	manager := session.NewManager("configs", engine.WithLogger(log))
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
//	// Drop sessions idle for an hour
//	removed := manager.CleanupExpiredSessions(time.Hour)
package session
