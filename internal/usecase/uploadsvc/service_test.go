package uploadsvc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/upload_lite/internal/chunk"
	"github.com/sir_venger/upload_lite/internal/manager"
	"github.com/sir_venger/upload_lite/internal/models"
	meta "github.com/sir_venger/upload_lite/internal/repo"
)

type recordingSink struct {
	mu     sync.Mutex
	events []manager.Event
}

func (r *recordingSink) Dispatch(_ context.Context, ev manager.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) kinds() []manager.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]manager.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	svc     *Uploads
	fs      billy.Filesystem
	store   *meta.MemoryStore
	sink    *recordingSink
	factory *chunk.FileAppendingHandlerFactory
	now     time.Time
}

func newFixture(t *testing.T, opts ...chunk.Option) *fixture {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/uploads", 0o755))

	fx := &fixture{
		fs:      fs,
		store:   meta.NewMemoryStore(),
		sink:    &recordingSink{},
		factory: chunk.NewFileAppendingHandlerFactory(fs, "/uploads", opts...),
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	fx.svc = New(Deps{
		MetaStorage:  fx.store,
		Handlers:     chunk.NewRegistry(fx.factory),
		Events:       fx.sink,
		FS:           fs,
		Destinations: fx.factory,
		Now:          func() time.Time { return fx.now },
	})

	return fx
}

func (fx *fixture) read(t *testing.T, id string) string {
	t.Helper()
	b, err := util.ReadFile(fx.fs, fx.factory.DestinationPath(id))
	require.NoError(t, err)
	return string(b)
}

func TestReceiveChunk_AppendsAndCompletes(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, chunk.WithOrderCheck(true))

	added, err := fx.svc.AddFiles(ctx, []NewFile{{ID: "o_1", Name: "report.pdf", Size: 9}})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, models.StatusQueued, added[0].Status)

	var last models.UploadFile
	for i, p := range []string{"AAA", "BBB", "CCC"} {
		last, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "o_1", Name: "report.pdf", Index: i, Total: 3, Data: []byte(p)})
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, models.StatusUploading, last.Status)
			assert.EqualValues(t, 33, last.Percent)
		}
	}

	assert.Equal(t, "AAABBBCCC", fx.read(t, "o_1"))
	assert.Equal(t, models.StatusDone, last.Status)
	assert.EqualValues(t, 9, last.Loaded)
	assert.EqualValues(t, 100, last.Percent)
	assert.Equal(t, 0, fx.svc.Handlers.Len())

	uploaded, err := fx.svc.UploadedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, uploaded, 1)
	assert.Equal(t, "o_1", uploaded[0].ID)

	assert.Equal(t, []manager.EventKind{
		manager.FilesAdded,
		manager.UploadProgress,
		manager.UploadProgress,
		manager.UploadProgress,
		manager.UploadComplete,
	}, fx.sink.kinds())
}

func TestReceiveChunk_RegistersUnknownFile(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	f, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{Name: "photo.jpg", Index: 0, Total: 2, Data: []byte("12")})
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", f.ID)
	assert.Equal(t, "photo.jpg", f.Name)
	assert.EqualValues(t, 50, f.Percent)

	kinds := fx.sink.kinds()
	require.Len(t, kinds, 2)
	assert.Equal(t, manager.FilesAdded, kinds[0])
	assert.Equal(t, manager.UploadProgress, kinds[1])
}

func TestReceiveChunk_NoIdentity(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.ReceiveChunk(context.Background(), ChunkRequest{Data: []byte("x")})
	require.ErrorIs(t, err, models.ErrInvalidChunk)
}

func TestReceiveChunk_DuplicateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, chunk.WithOrderCheck(true))

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 3, Data: []byte("AAA")})
	require.NoError(t, err)
	f, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 3, Data: []byte("AAA")})
	require.NoError(t, err)
	assert.Equal(t, 1, f.NextChunk)

	assert.Equal(t, "AAA", fx.read(t, "f"))
}

func TestReceiveChunk_GapRejected(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, chunk.WithOrderCheck(true))

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 3, Data: []byte("AAA")})
	require.NoError(t, err)
	_, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 2, Total: 3, Data: []byte("CCC")})
	require.ErrorIs(t, err, models.ErrChunkOutOfOrder)

	stored, err := fx.store.Get(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploading, stored.Status)
	assert.Equal(t, 1, stored.NextChunk)
}

func TestReceiveChunk_InvalidIndex(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.ReceiveChunk(context.Background(), ChunkRequest{FileID: "f", Index: 5, Total: 2})
	require.ErrorIs(t, err, models.ErrInvalidChunk)
}

func TestReceiveChunk_IOFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	require.NoError(t, fx.fs.Remove("/uploads"))

	f, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 2, Data: []byte("AAA")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIO))
	assert.Equal(t, models.StatusFailed, f.Status)

	stored, err := fx.store.Get(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestReceiveChunk_RestartAfterFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, chunk.WithOrderCheck(true), chunk.WithExistingPolicy(chunk.TruncateOnFirstChunk))

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 2, Data: []byte("AAA")})
	require.NoError(t, err)

	require.NoError(t, util.RemoveAll(fx.fs, "/uploads"))
	f, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 1, Total: 2, Data: []byte("BBB")})
	require.ErrorIs(t, err, models.ErrIO)
	require.Equal(t, models.StatusFailed, f.Status)
	require.NoError(t, fx.fs.MkdirAll("/uploads", 0o755))

	f, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 2, Data: []byte("AAA")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploading, f.Status)
	assert.Equal(t, 1, f.NextChunk)

	f, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 1, Total: 2, Data: []byte("BBB")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, f.Status)
	assert.EqualValues(t, 6, f.Loaded)
	assert.Equal(t, "AAABBB", fx.read(t, "f"))
}

func TestReceiveChunk_RestartAfterFailureTruncatesPartialBytes(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, chunk.WithOrderCheck(true), chunk.WithExistingPolicy(chunk.TruncateOnFirstChunk))

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 3, Data: []byte("AAA")})
	require.NoError(t, err)
	_, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 1, Total: 3, Data: []byte("BBB")})
	require.NoError(t, err)

	// Сбой записи между чанками: файл помечается сбойным.
	stored, err := fx.store.Get(ctx, "f")
	require.NoError(t, err)
	stored.Status = models.StatusFailed
	require.NoError(t, fx.store.Save(ctx, stored))

	for i, part := range []string{"xx", "yy", "zz"} {
		_, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: i, Total: 3, Data: []byte(part)})
		require.NoError(t, err)
	}
	assert.Equal(t, "xxyyzz", fx.read(t, "f"))
}

func TestReceiveChunk_ReuploadAppends(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, chunk.WithOrderCheck(true))

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 1, Data: []byte("AAA")})
	require.NoError(t, err)
	f, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 1, Data: []byte("BBB")})
	require.NoError(t, err)

	assert.Equal(t, models.StatusDone, f.Status)
	assert.EqualValues(t, 3, f.Loaded)
	assert.Equal(t, "AAABBB", fx.read(t, "f"))
}

func TestReceiveChunk_ReuploadTruncates(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, chunk.WithExistingPolicy(chunk.TruncateOnFirstChunk))

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 1, Data: []byte("AAA")})
	require.NoError(t, err)
	_, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 1, Data: []byte("BBB")})
	require.NoError(t, err)

	assert.Equal(t, "BBB", fx.read(t, "f"))
}

func TestReceiveChunk_ConcurrentFiles(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	ids := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 4; i++ {
				_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: id, Index: i, Total: 4, Data: []byte(id)})
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, id+id+id+id, fx.read(t, id))
	}
}

func TestRemoveFile(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.AddFiles(ctx, []NewFile{{ID: "a", Name: "a.txt"}, {ID: "b", Name: "b.txt"}})
	require.NoError(t, err)
	_, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "a", Index: 0, Total: 2, Data: []byte("AAA")})
	require.NoError(t, err)
	require.Equal(t, 1, fx.svc.Handlers.Len())

	require.NoError(t, fx.svc.RemoveFile(ctx, "a"))
	assert.Equal(t, 0, fx.svc.Handlers.Len())
	require.ErrorIs(t, fx.svc.RemoveFile(ctx, "a"), models.ErrNotFound)

	// Частичные данные не откатываются.
	assert.Equal(t, "AAA", fx.read(t, "a"))

	fx.sink.mu.Lock()
	last := fx.sink.events[len(fx.sink.events)-1]
	fx.sink.mu.Unlock()
	assert.Equal(t, manager.FilesRemoved, last.Kind)
	assert.Equal(t, 1, last.Queued)
}

func TestAddFiles_GeneratesIDs(t *testing.T) {
	fx := newFixture(t)
	added, err := fx.svc.AddFiles(context.Background(), []NewFile{{Name: "x"}, {Name: "y"}})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotEmpty(t, added[0].ID)
	assert.NotEqual(t, added[0].ID, added[1].ID)
}

func TestStartStop_DispatchQueued(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	_, err := fx.svc.AddFiles(ctx, []NewFile{{ID: "a"}})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Start(ctx))
	require.NoError(t, fx.svc.Stop(ctx))

	fx.sink.mu.Lock()
	defer fx.sink.mu.Unlock()
	require.Len(t, fx.sink.events, 3)
	assert.Equal(t, manager.UploadStarted, fx.sink.events[1].Kind)
	assert.Equal(t, manager.UploadStopped, fx.sink.events[2].Kind)
	assert.Equal(t, 1, fx.sink.events[2].Queued)
}

func TestSweepStale(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "stale", Index: 0, Total: 3, Data: []byte("AAA")})
	require.NoError(t, err)
	_, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "done", Index: 0, Total: 1, Data: []byte("DDD")})
	require.NoError(t, err)

	fx.now = fx.now.Add(48 * time.Hour)
	_, err = fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "fresh", Index: 0, Total: 3, Data: []byte("FFF")})
	require.NoError(t, err)

	swept, err := fx.svc.SweepStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = fx.fs.Stat(fx.factory.DestinationPath("stale"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "DDD", fx.read(t, "done"))
	assert.Equal(t, "FFF", fx.read(t, "fresh"))

	stale, err := fx.store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stale.Status)
}

func TestSweepStale_LockHeldElsewhere(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.svc.GCLockPath = filepath.Join(t.TempDir(), ".gc.lock")

	_, err := fx.svc.ReceiveChunk(ctx, ChunkRequest{FileID: "stale", Index: 0, Total: 2, Data: []byte("AAA")})
	require.NoError(t, err)
	fx.now = fx.now.Add(2 * time.Hour)

	other := flock.New(fx.svc.GCLockPath)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	swept, err := fx.svc.SweepStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	require.NoError(t, other.Unlock())
	swept, err = fx.svc.SweepStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
}

// listFailingStore отдаёт ошибку на List, остальные операции работают.
type listFailingStore struct {
	*meta.MemoryStore
}

func (s listFailingStore) List(context.Context) ([]models.UploadFile, error) {
	return nil, errors.New("list unavailable")
}

func TestReceiveChunk_NoCompletionWhenQueueUnknown(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/uploads", 0o755))
	factory := chunk.NewFileAppendingHandlerFactory(fs, "/uploads")
	sink := &recordingSink{}
	svc := New(Deps{
		MetaStorage:  listFailingStore{meta.NewMemoryStore()},
		Handlers:     chunk.NewRegistry(factory),
		Events:       sink,
		FS:           fs,
		Destinations: factory,
	})

	f, err := svc.ReceiveChunk(ctx, ChunkRequest{FileID: "f", Index: 0, Total: 1, Data: []byte("AAA")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, f.Status)

	assert.Equal(t, []manager.EventKind{manager.FilesAdded, manager.UploadProgress}, sink.kinds())
	sink.mu.Lock()
	assert.Equal(t, manager.QueuedUnknown, sink.events[0].Queued)
	sink.mu.Unlock()
}
