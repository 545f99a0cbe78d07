package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"

	gssh "github.com/gliderlabs/ssh"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/tileview/game/service"
)

// Server serves one scene session per SSH connection.
type Server struct {
	addr        string
	service     service.SceneService
	configID    string
	hostKeyFile string
	onChange    StateHook
	log         logrus.FieldLogger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig selects the scene config for new connections.
func WithConfig(configID string) Option {
	return func(s *Server) { s.configID = configID }
}

// WithHostKeyFile loads the host key from a PEM file. Without one a key is
// generated at startup.
func WithHostKeyFile(path string) Option {
	return func(s *Server) { s.hostKeyFile = path }
}

// WithStateHook reports state changes made from terminals, e.g. to
// broadcast them to websocket viewers.
func WithStateHook(fn StateHook) Option {
	return func(s *Server) { s.onChange = fn }
}

// WithLogger sets the server logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates an SSH host listening on addr.
func NewServer(addr string, svc service.SceneService, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		service: svc,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe accepts connections until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &gssh.Server{
		Addr:    s.addr,
		Handler: s.handleSession,
	}
	if s.hostKeyFile != "" {
		if err := server.SetOption(gssh.HostKeyFile(s.hostKeyFile)); err != nil {
			return fmt.Errorf("set host key: %w", err)
		}
	}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	s.log.WithField("addr", s.addr).Info("ssh: listening")
	err := server.ListenAndServe()
	if errors.Is(err, gssh.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleSession(sess gssh.Session) {
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		io.WriteString(sess, "Error: PTY required. Use: ssh -t ...\n")
		sess.Exit(1)
		return
	}

	ctx := sess.Context()
	info, err := s.service.CreateSession(ctx, s.configID)
	if err != nil {
		fmt.Fprintf(sess, "Error: %v\n", err)
		sess.Exit(1)
		return
	}

	log := s.log.WithFields(logrus.Fields{
		"session": info.ID,
		"user":    sess.User(),
		"remote":  sess.RemoteAddr().String(),
	})
	log.Info("ssh: client connected")
	defer func() {
		s.service.DeleteSession(context.Background(), info.ID)
		log.Info("ssh: client disconnected")
	}()

	term := NewTerminal(s.service, info.ID, ptyReq.Window, s.onChange, log)
	if err := term.Run(ctx, sess, sess, winCh); err != nil {
		log.WithError(err).Warn("ssh: terminal stopped")
		sess.Exit(1)
		return
	}
	sess.Exit(0)
}
