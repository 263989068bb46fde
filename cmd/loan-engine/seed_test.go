package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/memengine"
	"github.com/AntonStoeckl/bike-loan-engine-go/testutil/spies"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func Test_SeedStore(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEngine()
	logHandler := spies.NewLogHandlerSpy(false)
	path := writeSeed(t, `
assets:
  - serial: BK-001
    brand: Polygon
    kind: Mountain
  - serial: BK-002
    status: under_maintenance
    kind: Folding
    last_maintained_on: "2024-05-30"
borrowers:
  - id: b-1
    name: Sari
    email: sari@apps.example.org
`)

	// act
	err := seedStore(ctx, path, store, slog.New(logHandler))

	// assert
	require.NoError(t, err)

	available, err := store.AssetBySerial(ctx, "BK-001")
	require.NoError(t, err)
	assert.Equal(t, core.AssetAvailable, available.Status)

	maintained, err := store.AssetBySerial(ctx, "BK-002")
	require.NoError(t, err)
	assert.Equal(t, core.AssetUnderMaintenance, maintained.Status)
	require.NotNil(t, maintained.LastMaintainedOn)

	borrower, err := store.BorrowerContact(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "sari@apps.example.org", borrower.Email)
	assert.True(t, logHandler.HasLog(slog.LevelInfo, "seed applied"))
}

func Test_SeedStore_RejectsUnknownStatus(t *testing.T) {
	// arrange
	path := writeSeed(t, "assets:\n  - serial: BK-001\n    status: stolen\n")

	// act
	err := seedStore(context.Background(), path, memengine.NewEngine(), slog.New(spies.NewLogHandlerSpy(false)))

	// assert
	assert.ErrorIs(t, err, errInvalidSeed)
}

func Test_SeedStore_EmptyPathIsNoop(t *testing.T) {
	// act
	err := seedStore(context.Background(), "", memengine.NewEngine(), nil)

	// assert
	assert.NoError(t, err)
}
