package viewer

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/loaders"
	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/internal/services/history"
	"github.com/ternarybob/prism/internal/services/scene"
	"github.com/ternarybob/prism/internal/storage"
)

const objTriangle = "v 0 0 0\nv 4 0 0\nv 0 4 0\nf 1 2 3\n"

func newTestService(t *testing.T, withHistory bool) (*Service, *history.Service) {
	t.Helper()
	logger := arbor.NewLogger()

	var hist *history.Service
	if withHistory {
		dir := t.TempDir()
		manager, err := storage.NewManager(logger, &common.StorageConfig{
			Badger: common.BadgerConfig{Path: filepath.Join(dir, "badger")},
			Bolt:   common.BoltConfig{Path: filepath.Join(dir, "history.db")},
		})
		require.NoError(t, err)
		t.Cleanup(func() { manager.Close() })
		hist = history.NewService(manager, nil, 10, logger)
	}

	svc := NewService(
		loaders.NewRegistry(logger),
		scene.NewNormalizer(scene.DefaultTargetSize, scene.DefaultMargin, logger),
		hist,
		Options{MaxFileSize: 1 << 20, FOV: 45},
		logger,
	)
	return svc, hist
}

// trackingReader fails the test if any bytes are requested.
type trackingReader struct {
	t *testing.T
}

func (r *trackingReader) Read([]byte) (int, error) {
	r.t.Fatal("reader must not be consumed")
	return 0, io.EOF
}

func TestLoadUnsupportedFormatFailsBeforeRead(t *testing.T) {
	svc, _ := newTestService(t, false)

	var loadErr error
	svc.Load(context.Background(), "model.xyz", &trackingReader{t: t}, 10, Callbacks{
		OnModelLoad: func(Result) { t.Fatal("unexpected OnModelLoad") },
		OnError:     func(err error) { loadErr = err },
	})

	var ufe *models.UnsupportedFormatError
	require.ErrorAs(t, loadErr, &ufe)
	assert.Equal(t, "xyz", ufe.Extension)
}

func TestLoadFileTooLargeFailsBeforeRead(t *testing.T) {
	svc, _ := newTestService(t, false)

	var loadErr error
	svc.Load(context.Background(), "huge.obj", &trackingReader{t: t}, 2<<20, Callbacks{
		OnError: func(err error) { loadErr = err },
	})

	var fte *models.FileTooLargeError
	require.ErrorAs(t, loadErr, &fte)
	assert.Equal(t, int64(2<<20), fte.Size)
	assert.Equal(t, int64(1<<20), fte.Limit)
}

func TestLoadSuccessRunsFullPipeline(t *testing.T) {
	svc, _ := newTestService(t, false)

	var progress []models.LoadingProgress
	var result *Result
	svc.Load(context.Background(), "tri.obj", strings.NewReader(objTriangle),
		int64(len(objTriangle)), Callbacks{
			OnProgress:  func(p models.LoadingProgress) { progress = append(progress, p) },
			OnModelLoad: func(r Result) { result = &r },
			OnError:     func(err error) { t.Fatalf("unexpected error: %v", err) },
		})

	require.NotNil(t, result)
	assert.NotEmpty(t, progress)
	assert.Equal(t, "tri.obj", result.Asset.Name)
	assert.Equal(t, "obj", result.Asset.Format)

	// Normalization ran: the 4-unit triangle now fits the target size.
	require.True(t, result.Placement.Applied)
	box := result.Asset.BoundingBox()
	assert.InDelta(t, scene.DefaultTargetSize, box.MaxDimension(), 1e-9)

	// Framing ran: the camera looks at the recentered model.
	assert.InDelta(t, 0, result.Pose.Target.Length(), 1e-9)
	assert.Greater(t, result.Pose.Position.Length(), 0.0)
}

func TestLoadParseFailureReportsError(t *testing.T) {
	svc, _ := newTestService(t, false)

	var loadErr error
	svc.Load(context.Background(), "junk.stl", strings.NewReader("garbage"), 7, Callbacks{
		OnModelLoad: func(Result) { t.Fatal("unexpected OnModelLoad") },
		OnError:     func(err error) { loadErr = err },
	})

	var pe *models.ParseError
	require.ErrorAs(t, loadErr, &pe)
}

// interruptingReader serves its payload but first triggers fn, simulating a
// newer request arriving mid-load.
type interruptingReader struct {
	inner io.Reader
	fn    func()
	fired bool
}

func (r *interruptingReader) Read(p []byte) (int, error) {
	if !r.fired {
		r.fired = true
		r.fn()
	}
	return r.inner.Read(p)
}

func TestLastRequestedLoadWins(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	var winner string
	newerDone := false

	older := &interruptingReader{
		inner: strings.NewReader(objTriangle),
		fn: func() {
			svc.Load(ctx, "newer.obj", strings.NewReader(objTriangle),
				int64(len(objTriangle)), Callbacks{
					OnModelLoad: func(r Result) {
						winner = r.Asset.Name
						newerDone = true
					},
				})
		},
	}

	svc.Load(ctx, "older.obj", older, int64(len(objTriangle)), Callbacks{
		OnModelLoad: func(Result) { t.Fatal("superseded load must not report") },
		OnError:     func(err error) { t.Fatalf("superseded load must not error: %v", err) },
	})

	assert.True(t, newerDone)
	assert.Equal(t, "newer.obj", winner)
}

func TestLoadRecordsHistory(t *testing.T) {
	svc, hist := newTestService(t, true)
	ctx := context.Background()

	var result *Result
	svc.Load(ctx, "tri.obj", strings.NewReader(objTriangle), int64(len(objTriangle)), Callbacks{
		OnModelLoad: func(r Result) { result = &r },
		OnError:     func(err error) { t.Fatalf("unexpected error: %v", err) },
	})

	require.NotNil(t, result)
	require.NotNil(t, result.Entry)

	entries, err := hist.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tri.obj", entries[0].Name)
	assert.Equal(t, []byte(objTriangle), entries[0].Data)
}

func TestRestoreReloadsFromHistory(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	var entryID string
	svc.Load(ctx, "tri.obj", strings.NewReader(objTriangle), int64(len(objTriangle)), Callbacks{
		OnModelLoad: func(r Result) { entryID = r.Entry.ID },
	})
	require.NotEmpty(t, entryID)

	var restored *Result
	svc.Restore(ctx, entryID, Callbacks{
		OnModelLoad: func(r Result) { restored = &r },
		OnError:     func(err error) { t.Fatalf("unexpected error: %v", err) },
	})

	require.NotNil(t, restored)
	assert.Equal(t, "tri.obj", restored.Asset.Name)
	assert.Equal(t, 1, restored.Asset.TriangleCount())
}

func TestRestoreUnknownEntry(t *testing.T) {
	svc, _ := newTestService(t, true)

	var loadErr error
	svc.Restore(context.Background(), "hist_absent", Callbacks{
		OnError: func(err error) { loadErr = err },
	})
	assert.ErrorIs(t, loadErr, interfaces.ErrEntryNotFound)
}

func TestRestoreEntryWithoutData(t *testing.T) {
	svc, hist := newTestService(t, true)
	ctx := context.Background()

	// Entries persisted by the key-value fallback carry no model bytes.
	entry, err := hist.Add(ctx, nil, "lost.obj", nil)
	require.NoError(t, err)

	var loadErr error
	svc.Restore(ctx, entry.ID, Callbacks{
		OnModelLoad: func(Result) { t.Fatal("unexpected OnModelLoad") },
		OnError:     func(err error) { loadErr = err },
	})

	var re *models.ReadError
	require.ErrorAs(t, loadErr, &re)
	assert.True(t, errors.Is(loadErr, errEntryDataUnavailable))
}
