package logrus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Swind/go-task-executor/core"
	lr "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// TestLogger_ForwardsLevelsAndFields verifies the adapter
// Given: A logrus logger with a test hook
// When: Each level is logged with fields
// Then: Entries arrive with the matching level and fields
func TestLogger_ForwardsLevelsAndFields(t *testing.T) {
	// Arrange
	base, hook := test.NewNullLogger()
	base.SetLevel(lr.DebugLevel)
	logger := New(base)

	// Act
	logger.Debug("d")
	logger.Info("i", core.F("pool", "p1"))
	logger.Warn("w", core.F("err", errors.New("bad")))
	logger.Error("e", core.F("stack", []byte("trace")))

	// Assert
	entries := hook.AllEntries()
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	wantLevels := []lr.Level{lr.DebugLevel, lr.InfoLevel, lr.WarnLevel, lr.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level = %v, want %v", i, e.Level, wantLevels[i])
		}
	}
	if got := entries[1].Data["pool"]; got != "p1" {
		t.Errorf("pool field = %v, want p1", got)
	}
	if got := entries[3].Data["stack"]; got != "trace" {
		t.Errorf("stack field = %v, want string trace", got)
	}
}

// TestLogger_WiredIntoPool verifies pool lifecycle events reach logrus
// Given: A pool using the adapter
// When: The pool is started and shut down
// Then: The started and stopped events are logged with the pool ID
func TestLogger_WiredIntoPool(t *testing.T) {
	// Arrange
	base, hook := test.NewNullLogger()
	cfg := core.DefaultPoolConfig()
	cfg.ID = "logrus-pool"
	cfg.WorkerCount = 2
	cfg.Logger = New(base)

	// Act
	pool, err := core.NewPool(cfg)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	pool.Shutdown(core.ShutdownGraceful)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	// Assert
	seen := map[string]bool{}
	for _, e := range hook.AllEntries() {
		if e.Data["pool"] == "logrus-pool" {
			seen[e.Message] = true
		}
	}
	for _, msg := range []string{"pool started", "pool stopped"} {
		if !seen[msg] {
			t.Errorf("missing %q entry", msg)
		}
	}
}

func TestNew_NilUsesStandardLogger(t *testing.T) {
	if l := New(nil); l.fl != lr.StandardLogger() {
		t.Error("New(nil) should wrap the standard logger")
	}
}
