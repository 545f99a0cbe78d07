package service

import (
	"context"
	"image"
	"time"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/input"
)

// SceneService defines all scene-related operations
type SceneService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Input
	Dispatch(ctx context.Context, sessionID string, events []input.Event) (*DispatchResult, error)
	Move(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	Pan(ctx context.Context, sessionID string, dx, dy int) (*DispatchResult, error)
	Zoom(ctx context.Context, sessionID string, steps int) (*DispatchResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.State, error)

	// Inspection
	GetState(ctx context.Context, sessionID string) (*engine.State, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	RenderFrame(ctx context.Context, sessionID string, width, height int) (*image.RGBA, error)
	RenderPNG(ctx context.Context, sessionID string, width, height int) ([]byte, error)
	DescribeCell(ctx context.Context, sessionID string, col, row int) (*engine.CellInfo, error)
	HitTest(ctx context.Context, sessionID string, x, y int) (*engine.HitResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.SceneConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.SceneConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.SceneConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.SceneConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles scene configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.SceneConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.SceneConfig
	SaveConfig(name string, config *engine.SceneConfig) error
}

// Session represents an active scene session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.SceneEngine
	Config         *engine.SceneConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
