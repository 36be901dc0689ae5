package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"aspectwatch/internal/core/app"
	"aspectwatch/internal/core/config"
	"aspectwatch/internal/core/ports"
	"aspectwatch/internal/data/history"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/ui/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `version = 1

[session]
moment = "2024-03-20T12:00"
nudge = "1h"

[aspects]
orb = 3.0
close_threshold = 1.0

[[aspects.rules]]
angle = 90.0
name = "Square"
trend = "Negative"

[[aspects.rules]]
angle = 120.0
name = "Trine"
trend = "Positive"

[provider]
kind = "static"

[provider.static]
Sun = 0.0
Moon = 120.0
Mercury = 200.0
Venus = 10.0
Mars = 90.0
Jupiter = 250.0
Saturn = 300.0
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// steppingClock advances one second per reading so journal rows never collide.
func steppingClock() ports.Clock {
	var mu sync.Mutex
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	return ports.ClockFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	})
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "aspectwatch.toml")
	writeFile(t, cfgPath, baseConfig)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	store, err := history.Open(filepath.Join(tmpDir, "history.db"))
	require.NoError(t, err)
	defer store.Close()

	session, err := app.New(cfg, app.WithClock(steppingClock()), app.WithHistory(history.NewAdapter(store)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, session.Recompute(ctx))

	snap := session.Snapshot()
	require.NotNil(t, snap)
	assert.Len(t, snap.Aspects, 3)
	assert.Len(t, snap.Positions, len(sky.Bodies))
	assert.Equal(t, 3, snap.Totals().Positive+snap.Totals().Negative)
	assert.Contains(t, session.Status(), "3 aspects")

	out := config.Output{
		TSV:      filepath.Join(tmpDir, "reports", "aspects.tsv"),
		Markdown: filepath.Join(tmpDir, "reports", "aspects.md"),
	}
	written, err := report.Write(snap, out, "test")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{out.TSV, out.Markdown}, written)

	tsv, err := os.ReadFile(out.TSV)
	require.NoError(t, err)
	assert.Contains(t, string(tsv), "Trine")
	assert.Contains(t, string(tsv), "Square")

	require.NoError(t, session.SetFilter("Venus"))
	filtered := session.Snapshot()
	assert.Len(t, filtered.Filtered, 1)
	assert.Len(t, filtered.Aspects, 3)

	moved, err := session.Nudge(ctx, 2)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC), session.Moment())

	rows, err := store.LoadSnapshots(session.ID(), time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].AspectCount)
	assert.Equal(t, "Venus", rows[1].Filter)
	assert.Equal(t, history.SchemaVersion, rows[1].SchemaVersion)
}

func TestConfigReloadIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "aspectwatch.toml")
	writeFile(t, cfgPath, baseConfig)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	session, err := app.New(cfg, app.WithClock(steppingClock()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, session.Recompute(ctx))

	updates := make(chan app.Update, 4)
	session.SetUpdateHandler(func(u app.Update) { updates <- u })

	watcher := config.NewWatcher(cfgPath, 50*time.Millisecond, func(next *config.Config, loadErr error) {
		_ = session.ApplyConfig(ctx, next, loadErr)
	})
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	// A broken edit keeps the previous result on screen.
	writeFile(t, cfgPath, strings.Replace(baseConfig, "orb = 3.0", "orb = -1.0", 1))
	select {
	case u := <-updates:
		require.Error(t, u.Err)
		assert.Contains(t, u.Status, "showing last good result")
		assert.Len(t, session.Snapshot().Aspects, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for failed reload")
	}

	// Dropping the square rule leaves only the two trines.
	noSquare := strings.Replace(baseConfig, "[[aspects.rules]]\nangle = 90.0\nname = \"Square\"\ntrend = \"Negative\"\n\n", "", 1)
	writeFile(t, cfgPath, noSquare)
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.Err != nil {
				continue
			}
			require.NotNil(t, u.Snapshot)
			assert.Len(t, u.Snapshot.Aspects, 2)
			assert.Equal(t, 2, u.Snapshot.Totals().Positive)
			return
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}
