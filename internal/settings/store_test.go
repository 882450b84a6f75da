package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausmo/scan-engine/internal/model"
)

func baseSettings() model.ScanSettings {
	return model.ScanSettings{
		Enabled:         true,
		Speed:           time.Second,
		Mode:            model.ModeAutomatic,
		Direction:       model.DirectionRowColumn,
		SwitchType:      model.SwitchSingle,
		AutoSelect:      false,
		AutoSelectDelay: 3 * time.Second,
	}
}

func boolPtr(b bool) *bool                         { return &b }
func durPtr(d time.Duration) *time.Duration        { return &d }
func modePtr(m model.ScanMode) *model.ScanMode     { return &m }
func dirPtr(d model.ScanDirection) *model.ScanDirection { return &d }

func TestUpdateMergesOnlyPatchedFields(t *testing.T) {
	store := NewStore(baseSettings())

	got, err := store.Update(Patch{
		Speed: durPtr(500 * time.Millisecond),
		Mode:  modePtr(model.ModeStep),
	})
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, got.Speed)
	assert.Equal(t, model.ModeStep, got.Mode)
	assert.Equal(t, model.DirectionRowColumn, got.Direction, "unpatched field must survive")
	assert.True(t, got.Enabled)
	assert.Equal(t, got, store.Snapshot())
}

func TestUpdateRejectsInvalidSpeed(t *testing.T) {
	store := NewStore(baseSettings())

	_, err := store.Update(Patch{Speed: durPtr(0)})
	require.Error(t, err)

	assert.Equal(t, time.Second, store.Snapshot().Speed, "failed update must not change the snapshot")
}

func TestUpdateRejectsUnknownDirection(t *testing.T) {
	store := NewStore(baseSettings())

	_, err := store.Update(Patch{Direction: dirPtr(model.ScanDirection("diagonal"))})
	assert.Error(t, err)
}

func TestDisableHookFires(t *testing.T) {
	store := NewStore(baseSettings())

	var fired int
	store.OnDisable(func() { fired++ })

	_, err := store.Update(Patch{Enabled: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// Disabling an already-disabled store must not re-fire.
	_, err = store.Update(Patch{Enabled: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestReplaceFiresDisableHook(t *testing.T) {
	store := NewStore(baseSettings())

	var fired int
	store.OnDisable(func() { fired++ })

	next := baseSettings()
	next.Enabled = false
	_, err := store.Replace(next)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestAutoSelectNeedsPositiveDelay(t *testing.T) {
	store := NewStore(baseSettings())

	_, err := store.Update(Patch{
		AutoSelect:      boolPtr(true),
		AutoSelectDelay: durPtr(0),
	})
	assert.Error(t, err)
}
