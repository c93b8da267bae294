//go:build integration

package bot

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// serverURL returns the base URL of a running server with DEV_MODE on.
func serverURL(t *testing.T) string {
	t.Helper()
	u := os.Getenv("DEXTER_SERVER_URL")
	if u == "" {
		t.Skip("DEXTER_SERVER_URL not set")
	}
	return u
}

func TestIntegration_RemoteTableFinishes(t *testing.T) {
	orch := NewOrchestrator(TableConfig{
		BaseURL:  serverURL(t),
		Players:  4,
		Scripted: 3,
		Roles:    dexter.RoleToggles{Duke: true, Sniper: true},
		Seed:     42,
		Timeout:  3 * time.Minute,
	})
	view, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dexter.StatusGameOver, view.Status)
	_, over := view.Game.Winner()
	assert.True(t, over)
}
