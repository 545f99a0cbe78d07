package service

import (
	"errors"
	"time"

	"github.com/wricardo/tileview/game/engine"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SessionInfo provides information about a scene session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	State          *engine.State       `json:"state"`
	SceneConfig    *engine.SceneConfig `json:"scene_config,omitempty"`
}

// DispatchResult contains the outcome of routing a batch of input events
type DispatchResult struct {
	Dispatched int           `json:"dispatched"`
	Redraws    int           `json:"redraws"`
	Redraw     bool          `json:"redraw"`
	Truncated  bool          `json:"truncated,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	State      *engine.State `json:"state"`
}

// MoveResult contains the result of a token move
type MoveResult struct {
	Success bool              `json:"success"`
	Move    *engine.MoveEntry `json:"move,omitempty"`
	Message string            `json:"message"`
	State   *engine.State     `json:"state"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveEntry `json:"moves"`
	TotalMoves  int                `json:"total_moves"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
	TotalPages  int                `json:"total_pages"`
	HasNext     bool               `json:"has_next"`
	HasPrevious bool               `json:"has_previous"`
}

// ConfigInfo provides information about a scene configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Columns     int    `json:"columns,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Layers      int    `json:"layers,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}
