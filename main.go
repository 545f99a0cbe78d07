// Command tileview hosts tile scenes.
//
// Subcommands:
//  1. "window" (default) – opens a desktop window on one scene
//  2. "serve" – runs the REST API, WebSocket hub and an /mcp HTTP endpoint,
//     optionally with an SSH terminal host and an ngrok tunnel
//  3. "mcp" – runs an MCP stdio server, spinning up an internal HTTP API if none is available
//  4. "ssh" – runs only the SSH terminal host
//  5. "render" – writes one frame of a scene to a PNG file
//  6. "generate" – writes the demo tile atlas used by the built-in scene
//
// Settings come from flags, environment variables and an optional .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wricardo/tileview/api"
	"github.com/wricardo/tileview/desktop"
	"github.com/wricardo/tileview/game/config"
	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/service"
	"github.com/wricardo/tileview/game/session"
	"github.com/wricardo/tileview/transport/mcp"
	"github.com/wricardo/tileview/transport/ssh"
	"github.com/wricardo/tileview/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "tileview"
)

const (
	sessionMaxAge     = 24 * time.Hour
	sessionSweepEvery = time.Hour
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "pan, zoom and walk tile scenes from a window, HTTP, MCP or SSH",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing scene configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "scene",
				Usage:   "scene config to open (default config when empty)",
				Sources: cli.EnvVars("TILEVIEW_SCENE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("TILEVIEW_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "also write logs to this file, rotated",
				Sources: cli.EnvVars("TILEVIEW_LOG_FILE"),
			},
		},
		Action: runWindow,
		Commands: []*cli.Command{
			{
				Name:   "window",
				Usage:  "open a desktop window on a scene",
				Action: runWindow,
			},
			{
				Name:  "serve",
				Usage: "run the HTTP API, WebSocket hub and /mcp endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: "localhost:8080", Usage: "HTTP listen address", Sources: cli.EnvVars("TILEVIEW_ADDR")},
					&cli.StringFlag{Name: "ssh-addr", Usage: "also serve terminals over SSH on this address", Sources: cli.EnvVars("TILEVIEW_SSH_ADDR")},
					&cli.StringFlag{Name: "host-key", Usage: "SSH host key file", Sources: cli.EnvVars("TILEVIEW_HOST_KEY")},
					&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
				},
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "API to proxy; an internal one starts when unreachable", Sources: cli.EnvVars("TILEVIEW_API_URL")},
				},
				Action: runMCP,
			},
			{
				Name:  "ssh",
				Usage: "serve scenes to terminals over SSH",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":2222", Usage: "SSH listen address", Sources: cli.EnvVars("TILEVIEW_SSH_ADDR")},
					&cli.StringFlag{Name: "host-key", Usage: "SSH host key file", Sources: cli.EnvVars("TILEVIEW_HOST_KEY")},
				},
				Action: runSSH,
			},
			{
				Name:  "render",
				Usage: "render one frame of a scene to PNG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "frame.png", Usage: "output file"},
					&cli.IntFlag{Name: "width", Usage: "frame width (scene frame size when 0)"},
					&cli.IntFlag{Name: "height", Usage: "frame height (scene frame size when 0)"},
				},
				Action: runRender,
			},
			{
				Name:  "generate",
				Usage: "write the demo tile atlas",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output file (config dir/" + config.DefaultAtlas + " when empty)"},
					&cli.IntFlag{Name: "cell-size", Value: engine.DefaultCellSize, Usage: "atlas cell size in pixels"},
				},
				Action: runGenerate,
			},
		},
	}
}

// newLogger builds the process logger. A non-empty file adds a rotating log
// file next to stderr.
func newLogger(level, file string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log := logrus.New()
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if file != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}))
	}
	return log, nil
}

// services holds the managers behind every host.
type services struct {
	log      *logrus.Logger
	configs  *config.Manager
	sessions *session.Manager
	scenes   service.SceneService
}

// initializeServices wires the config and session managers into the scene
// service.
func initializeServices(configDir string, log *logrus.Logger) (*services, error) {
	configs, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessions := session.NewManager(configs.Dir(), engine.WithLogger(log))
	scenes := service.NewSceneService(sessions, configs, service.WithLogger(log))

	return &services{
		log:      log,
		configs:  configs,
		sessions: sessions,
		scenes:   scenes,
	}, nil
}

func setup(cmd *cli.Command) (*services, error) {
	log, err := newLogger(cmd.String("log-level"), cmd.String("log-file"))
	if err != nil {
		return nil, err
	}
	return initializeServices(cmd.String("config-dir"), log)
}

// loadScene builds a standalone engine for the named config, or the default
// config when name is empty.
func (s *services) loadScene(name string) (*engine.SceneEngine, error) {
	cfg := s.configs.GetDefault()
	if name != "" {
		var err error
		if cfg, err = s.configs.LoadConfig(name); err != nil {
			return nil, err
		}
	}
	eng, err := engine.NewEngine(cfg, s.configs.Dir(), engine.WithLogger(s.log))
	if err != nil {
		return nil, fmt.Errorf("failed to build scene %q: %w", cfg.Name, err)
	}
	return eng, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, log logrus.FieldLogger) {
	ticker := time.NewTicker(sessionSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				log.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

func runWindow(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	eng, err := app.loadScene(cmd.String("scene"))
	if err != nil {
		return err
	}
	defer eng.Close()

	app.log.WithField("scene", eng.Config().Name).Info("Opening window")
	return desktop.NewGame(eng, desktop.WithLogger(app.log)).Run()
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	eng, err := app.loadScene(cmd.String("scene"))
	if err != nil {
		return err
	}
	defer eng.Close()

	width, height := int(cmd.Int("width")), int(cmd.Int("height"))
	if width <= 0 || height <= 0 {
		width, height = eng.FrameSize()
	}
	if width > engine.MaxFrameSize || height > engine.MaxFrameSize {
		return fmt.Errorf("frame size %dx%d exceeds %d", width, height, engine.MaxFrameSize)
	}

	out := cmd.String("out")
	if err := writePNG(out, eng.Frame(width, height)); err != nil {
		return err
	}
	app.log.WithFields(logrus.Fields{"file": out, "width": width, "height": height}).Info("Frame written")
	return nil
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd.String("log-level"), cmd.String("log-file"))
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		out = filepath.Join(cmd.String("config-dir"), config.DefaultAtlas)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
	}

	img, err := generateAtlas(int(cmd.Int("cell-size")))
	if err != nil {
		return err
	}
	if err := writePNG(out, img); err != nil {
		return err
	}
	log.WithField("file", out).Info("Atlas written")
	return nil
}

func runSSH(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.sessions.Close()

	srv := ssh.NewServer(cmd.String("addr"), app.scenes,
		ssh.WithConfig(cmd.String("scene")),
		ssh.WithHostKeyFile(cmd.String("host-key")),
		ssh.WithLogger(app.log),
	)
	return srv.ListenAndServe(ctx)
}

// mcpHandler answers MCP JSON-RPC messages posted over HTTP.
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runServe starts the HTTP server with REST API, WebSocket hub and an /mcp
// proxy endpoint, plus the optional SSH host and ngrok tunnel.
func runServe(parent context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	log := app.log
	defer app.sessions.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	hub := websocket.NewHub(websocket.WithLogger(log))
	go hub.Run(ctx)

	apiServer := api.NewServer(app.scenes, hub, api.WithLogger(log))

	addr := cmd.String("addr")
	mcpClient := mcp.NewClient("http://" + addr)

	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(logrus.Fields{
			"api":       fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Info("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if sshAddr := cmd.String("ssh-addr"); sshAddr != "" {
		srv := ssh.NewServer(sshAddr, app.scenes,
			ssh.WithConfig(cmd.String("scene")),
			ssh.WithHostKeyFile(cmd.String("host-key")),
			ssh.WithStateHook(hub.BroadcastToSession),
			ssh.WithLogger(log),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx); err != nil {
				errCh <- fmt.Errorf("ssh server: %w", err)
			}
		}()
	}

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router, log); err != nil {
				log.WithError(err).Warn("Ngrok tunnel failed")
			}
		}()
	}

	go sessionCleanupRoutine(ctx, app.sessions, log)

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err = <-errCh:
		log.WithError(err).Error("Server failed, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
	return err
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done.
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler, log logrus.FieldLogger) error {
	if authToken == "" {
		return errors.New("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	log.WithFields(logrus.Fields{
		"url":       url,
		"api":       url + "/api",
		"websocket": url + "/ws?session=<session_id>",
		"mcp":       url + "/mcp",
	}).Info("Ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ngrok server: %w", err)
	}
	log.Info("Ngrok tunnel closed")
	return nil
}

// apiAvailable reports whether an API answers health checks at baseURL.
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runMCP runs an MCP stdio server. It reuses the API at --api-url when one
// answers; otherwise it starts an internal API on a random loopback port.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	log := app.log
	defer app.sessions.Close()

	baseURL := cmd.String("api-url")
	if apiAvailable(baseURL) {
		log.WithField("url", baseURL).Info("External API server found, using it for MCP")
	} else {
		log.WithField("url", baseURL).Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub(websocket.WithLogger(log))
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(app.scenes, hub, api.WithLogger(log))}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
	}

	log.WithField("api", baseURL).Info("MCP stdio server ready")
	return mcp.NewClient(baseURL).Run()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
