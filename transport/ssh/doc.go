// Package ssh serves scenes to terminals over SSH.
//
// Every connection gets its own session, rendered with 24-bit colored half
// blocks sized to the client's PTY. Sessions live in the shared scene service,
// so they are also visible through the REST API while connected.
//
// Keys: arrows or WASD move the token, HJKL pan, + and - zoom, r resets,
// ? toggles help, q or Ctrl-C quits.
//
// Usage:
//
//	srv := ssh.NewServer(":2222", sceneService, ssh.WithConfig("default"))
//	if err := srv.ListenAndServe(ctx); err != nil {
//		log.Fatal(err)
//	}
package ssh
