package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/upload_lite/internal/models"
)

func TestManager_RunAppliesEventsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New(4, nil)
	m.AddItemHook(func(item *Item, f models.UploadFile) {
		item.Label = "[" + item.Label + "]"
	})
	go m.Run(ctx)

	require.NoError(t, m.Dispatch(ctx, Event{Kind: FilesAdded, Files: files("a"), Queued: 1}))
	require.NoError(t, m.Dispatch(ctx, Event{Kind: UploadStarted}))
	require.NoError(t, m.Dispatch(ctx, Event{Kind: UploadProgress, File: models.UploadFile{ID: "a", Percent: 100}}))
	require.NoError(t, m.Dispatch(ctx, Event{Kind: UploadComplete}))

	require.Eventually(t, func() bool {
		return m.Snapshot().Phase == PhaseComplete
	}, time.Second, 5*time.Millisecond)

	s := m.Snapshot()
	require.Len(t, s.Items, 1)
	assert.Equal(t, "[a.bin]", s.Items[0].Label)
	assert.EqualValues(t, 100, s.Items[0].Percent)
	assert.False(t, s.StopEnabled)
}

func TestManager_DispatchHonoursContext(t *testing.T) {
	m := New(1, nil)
	require.NoError(t, m.Dispatch(context.Background(), Event{Kind: UploadStarted}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Dispatch(ctx, Event{Kind: UploadStopped})
	assert.ErrorIs(t, err, context.Canceled)
}
