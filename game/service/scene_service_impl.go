package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/input"
	"github.com/wricardo/tileview/game/surface"
)

// sceneServiceImpl implements the SceneService interface
type sceneServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	log      logrus.FieldLogger
	mu       sync.RWMutex
}

// Option configures the scene service.
type Option func(*sceneServiceImpl)

// WithLogger sets the service logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *sceneServiceImpl) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSceneService creates a new scene service instance
func NewSceneService(sessions SessionManager, configs ConfigManager, opts ...Option) SceneService {
	s := &sceneServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *sceneServiceImpl) getConfigID(sess *Session) string {
	if sess.ConfigID != "" {
		return sess.ConfigID
	}
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == sess.Config.Name {
				return cfg.ConfigID
			}
		}
	}
	if sess.Config.Name == "" {
		return "default"
	}
	return sess.Config.Name
}

func (s *sceneServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Engine.State(),
		SceneConfig:    sess.Config,
	}
}

// session looks up a session and marks it as accessed. Callers hold s.mu.
func (s *sceneServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session %q: %v", ErrNotFound, sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("service: failed to update last access")
	}
	return sess, nil
}

// CreateSession creates a new scene session
func (s *sceneServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.SceneConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: config '%s' not found. Available configs: %v", ErrNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: config '%s' not found. Use /api/configs to list available configurations", ErrNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ConfigID = configName

	s.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"config":  config.Name,
	}).Info("service: session created")

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *sceneServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *sceneServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *sceneServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: session %q: %v", ErrNotFound, sessionID, err)
	}
	s.log.WithField("session", sessionID).Info("service: session deleted")
	return nil
}

// Dispatch routes a batch of input events to a session's scene
func (s *sceneServiceImpl) Dispatch(ctx context.Context, sessionID string, events []input.Event) (*DispatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{}

	// Limit events to prevent abuse
	if len(events) > engine.MaxBulkEvents {
		result.Truncated = true
		result.Limit = engine.MaxBulkEvents
		events = events[:engine.MaxBulkEvents]
	}

	result.Dispatched = len(events)
	result.Redraws = sess.Engine.DispatchAll(events)
	result.Redraw = result.Redraws > 0
	result.State = sess.Engine.State()
	return result, nil
}

// Move steps the token one cell in the named direction
func (s *sceneServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	dir, err := surface.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	entry, err := sess.Engine.MoveToken(dir)
	if err != nil {
		if errors.Is(err, surface.ErrNoToken) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return &MoveResult{
			Success: false,
			Message: err.Error(),
			State:   sess.Engine.State(),
		}, nil
	}

	return &MoveResult{
		Success: !entry.Blocked,
		Move:    entry,
		Message: moveMessage(entry),
		State:   sess.Engine.State(),
	}, nil
}

func moveMessage(m *engine.MoveEntry) string {
	msg := fmt.Sprintf("Moved %s from (%d,%d) to (%d,%d)", m.Dir, m.FromCol, m.FromRow, m.ToCol, m.ToRow)
	switch {
	case m.Wrapped:
		msg += ", wrapped around the edge"
	case m.Blocked:
		msg = fmt.Sprintf("Blocked moving %s at (%d,%d)", m.Dir, m.FromCol, m.FromRow)
	}
	return msg
}

// Pan drags the surface by (dx, dy) starting from its anchor.
func (s *sceneServiceImpl) Pan(ctx context.Context, sessionID string, dx, dy int) (*DispatchResult, error) {
	st, err := s.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.DrawableWidth <= 0 || st.DrawableHeight <= 0 {
		return nil, fmt.Errorf("%w: surface has no drawable area to grab", ErrInvalidInput)
	}
	return s.Dispatch(ctx, sessionID, input.Drag(st.Anchor.X, st.Anchor.Y, dx, dy))
}

// Zoom scrolls the wheel over the surface anchor. Positive steps zoom out.
func (s *sceneServiceImpl) Zoom(ctx context.Context, sessionID string, steps int) (*DispatchResult, error) {
	st, err := s.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.DrawableWidth <= 0 || st.DrawableHeight <= 0 {
		return nil, fmt.Errorf("%w: surface has no drawable area to zoom", ErrInvalidInput)
	}
	return s.Dispatch(ctx, sessionID, []input.Event{input.Scroll(st.Anchor.X, st.Anchor.Y, steps)})
}

// Reset rebuilds a session's scene from its configuration
func (s *sceneServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Reset()
}

// GetState retrieves the current scene state
func (s *sceneServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.State(), nil
}

// GetMoveHistory returns paginated move history
func (s *sceneServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	moves := []engine.MoveEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// RenderFrame renders the current frame. A zero width or height uses the
// scene's frame size.
func (s *sceneServiceImpl) RenderFrame(ctx context.Context, sessionID string, width, height int) (*image.RGBA, error) {
	if width < 0 || height < 0 || width > engine.MaxFrameSize || height > engine.MaxFrameSize {
		return nil, fmt.Errorf("%w: frame size must be between 1 and %d, got %dx%d",
			ErrInvalidInput, engine.MaxFrameSize, width, height)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	fw, fh := sess.Engine.FrameSize()
	if width == 0 {
		width = fw
	}
	if height == 0 {
		height = fh
	}
	return sess.Engine.Frame(width, height), nil
}

// RenderPNG renders the current frame as a PNG image
func (s *sceneServiceImpl) RenderPNG(ctx context.Context, sessionID string, width, height int) ([]byte, error) {
	frame, err := s.RenderFrame(ctx, sessionID, width, height)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// DescribeCell reports what occupies one grid cell
func (s *sceneServiceImpl) DescribeCell(ctx context.Context, sessionID string, col, row int) (*engine.CellInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	info, err := sess.Engine.Describe(col, row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return info, nil
}

// HitTest reports what lies under a screen point
func (s *sceneServiceImpl) HitTest(ctx context.Context, sessionID string, x, y int) (*engine.HitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.HitTest(x, y), nil
}

// ListConfigs returns available scene configurations
func (s *sceneServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific scene configuration
func (s *sceneServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.SceneConfig, error) {
	config, err := s.configs.LoadConfig(configName)
	if err != nil && strings.Contains(err.Error(), "configuration not found") {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return config, err
}

// SaveConfig saves a scene configuration to disk
func (s *sceneServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.SceneConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		if strings.Contains(err.Error(), "invalid configuration") {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return err
	}
	return nil
}
