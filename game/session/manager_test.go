package session

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/surface"
)

func createTestConfig() *engine.SceneConfig {
	return &engine.SceneConfig{
		Name:   "Test Config",
		Kind:   "flat",
		Width:  10,
		Height: 10,
		Color:  "#336699",
	}
}

// createGridManager writes a two-cell atlas into a temp dir and returns a
// manager rooted there plus a demo grid config using it.
func createGridManager(t *testing.T) (*Manager, *engine.SceneConfig) {
	t.Helper()
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 30), 0, 0, 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "tile.png"))
	if err != nil {
		t.Fatalf("Failed to create atlas: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode atlas: %v", err)
	}

	cfg := engine.DefaultSceneConfig()
	cfg.Image = "tile.png"
	cfg.CellWidth, cfg.CellHeight = 4, 4
	return NewManager(dir), cfg
}

func TestManager_Create(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil {
			t.Error("Expected engine to be initialized")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != IDLength {
			t.Errorf("Expected %d-character session ID, got %q", IDLength, session.ID)
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid session ID", func(t *testing.T) {
		_, err := manager.Create("a/b", config)
		if err == nil {
			t.Error("Expected error for ID containing a slash")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		invalidConfig := createTestConfig()
		invalidConfig.Name = ""
		_, err := manager.Create("invalid-test", invalidConfig)
		if err == nil {
			t.Error("Expected error for invalid config")
		}
		if manager.sessionExists("invalid-test") {
			t.Error("Expected failed session not to be stored")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager("")
	created, _ := manager.Create("get-test", createTestConfig())

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session.ID != created.ID {
			t.Errorf("Expected session ID '%s', got '%s'", created.ID, session.ID)
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session != created {
			t.Errorf("Expected same session regardless of case")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		_, err := manager.Get("non-existent")
		if err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()

	first, err := manager.GetOrCreate("new-session", config)
	if err != nil {
		t.Fatalf("Failed to get or create session: %v", err)
	}
	second, err := manager.GetOrCreate("NEW-SESSION", config)
	if err != nil {
		t.Fatalf("Failed to get existing session: %v", err)
	}
	if first != second {
		t.Error("Expected the existing session to be returned")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()
	manager.Create("delete-test", config)

	t.Run("delete existing session", func(t *testing.T) {
		if err := manager.Delete("delete-test"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if _, err := manager.Get("delete-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted")
		}
	})

	t.Run("delete non-existent session", func(t *testing.T) {
		if err := manager.Delete("non-existent"); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("case-insensitive delete", func(t *testing.T) {
		manager.Create("case-test", config)
		if err := manager.Delete("CASE-TEST"); err != nil {
			t.Fatalf("Failed to delete with different case: %v", err)
		}
		if _, err := manager.Get("case-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted regardless of case")
		}
	})
}

func TestManager_List(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()

	for i := 1; i <= 3; i++ {
		if _, err := manager.Create(fmt.Sprintf("list-%d", i), config); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
	for i, s := range sessions {
		if want := fmt.Sprintf("list-%d", i+1); s.ID != want {
			t.Errorf("Expected session %d to be %s, got %s", i, want, s.ID)
		}
	}
}

func TestManager_ListOrdering(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()

	base := time.Now()
	created := map[string]time.Time{
		"zulu":  base.Add(-time.Hour),
		"bravo": base,
		"alpha": base,
		"echo":  base.Add(-2 * time.Hour),
	}
	for id, at := range created {
		s, err := manager.Create(id, config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		s.CreatedAt = at
	}

	want := []string{"echo", "zulu", "alpha", "bravo"}
	for run := 0; run < 5; run++ {
		sessions := manager.List()
		for i, s := range sessions {
			if s.ID != want[i] {
				t.Fatalf("Expected order %v, got %s at %d", want, s.ID, i)
			}
		}
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()

	active, _ := manager.Create("active", config)
	expired, _ := manager.Create("expired", config)

	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	if deleted := manager.CleanupExpiredSessions(time.Hour); deleted != 1 {
		t.Errorf("Expected 1 session to be deleted, got %d", deleted)
	}
	if _, err := manager.Get("expired"); err != ErrSessionNotFound {
		t.Error("Expected expired session to be deleted")
	}
	if _, err := manager.Get("active"); err != nil {
		t.Error("Expected active session to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager("")
	session, _ := manager.Create("access-test", createTestConfig())
	originalTime := session.LastAccessedAt

	time.Sleep(10 * time.Millisecond)

	if err := manager.UpdateLastAccessed("ACCESS-TEST"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}
	updated, _ := manager.Get("access-test")
	if !updated.LastAccessedAt.After(originalTime) {
		t.Error("Expected LastAccessedAt to be updated")
	}

	if err := manager.UpdateLastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.GetOrCreate(fmt.Sprintf("shared-%d", id%10), config); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 10 {
		t.Errorf("Expected 10 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager, config := createGridManager(t)
	defer manager.Close()

	session1, err := manager.Create("iso-1", config)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	session2, _ := manager.Create("iso-2", config)

	if _, err := session1.Engine.MoveToken(surface.Right); err != nil {
		t.Fatalf("MoveToken failed: %v", err)
	}

	if col := session1.Engine.State().Token.Col; col != 1 {
		t.Errorf("Expected session 1 token at column 1, got %d", col)
	}
	if col := session2.Engine.State().Token.Col; col != 0 {
		t.Error("Session 2 should not be affected by session 1 moves")
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager("")
	config := createTestConfig()

	generatedIDs := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := manager.Create("", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true
	}
}

func TestManager_Close(t *testing.T) {
	manager := NewManager("")
	manager.Create("a", createTestConfig())
	manager.Create("b", createTestConfig())

	manager.Close()
	if manager.Count() != 0 {
		t.Errorf("Expected no sessions after close, got %d", manager.Count())
	}
}
