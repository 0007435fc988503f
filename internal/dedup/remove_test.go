package dedup

import (
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/fskit/internal/metrics"
	fixture "github.com/fenilsonani/fskit/internal/testutil"
)

// fakeDeleter fails for chosen paths and otherwise deletes for real
type fakeDeleter struct {
	mu    sync.Mutex
	fail  map[string]error
	calls map[string]int
}

func (d *fakeDeleter) Remove(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[path]++
	if err, ok := d.fail[path]; ok {
		return err
	}
	return os.Remove(path)
}

type memRecorder struct {
	events []RemovalEvent
}

func (r *memRecorder) Record(ev RemovalEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func TestNormalizeKeep(t *testing.T) {
	tests := []struct {
		name string
		keep []int
		want []int
	}{
		{"nil", nil, nil},
		{"empty", []int{}, []int{}},
		{"positive unchanged", []int{0, 2}, []int{0, 2}},
		{"minus one with one entry", []int{-1}, []int{0}},
		{"mixed", []int{1, -1}, []int{1, 1}},
		{"minus two with three entries", []int{0, 5, -2}, []int{0, 5, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var orig []int
			if tt.keep != nil {
				orig = append([]int{}, tt.keep...)
			}
			got := NormalizeKeep(tt.keep)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, orig, tt.keep, "input must not be modified")
		})
	}
}

func TestSelection(t *testing.T) {
	files := []string{"/p/1", "/p/2", "/p/3"}

	tests := []struct {
		name       string
		keep       []int
		wantRemove []string
		wantKept   []string
	}{
		{"remove all", nil, files, nil},
		{"empty keep removes all", []int{}, files, nil},
		{"keep first", []int{0}, []string{"/p/2", "/p/3"}, []string{"/p/1"}},
		{"keep last explicit", []int{2}, []string{"/p/1", "/p/2"}, []string{"/p/3"}},
		{"keep two", []int{0, 2}, []string{"/p/2"}, []string{"/p/1", "/p/3"}},
		{"minus one resolves against keep list", []int{-1}, []string{"/p/2", "/p/3"}, []string{"/p/1"}},
		{"out of range keeps nothing", []int{7}, files, nil},
		{"duplicate indexes", []int{1, 1}, []string{"/p/1", "/p/3"}, []string{"/p/2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remove, kept := Selection(files, tt.keep)
			assert.Equal(t, tt.wantRemove, remove)
			assert.Equal(t, tt.wantKept, kept)
		})
	}
}

func TestRemoveKeepFirst(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("x", "a", "b")
	f.CreateTextFile("c", "y")

	e := newEngine(t, f.RootDir, Options{})
	removal, err := e.Remove(0, []int{0})

	require.NoError(t, err)
	assert.Equal(t, RemovalDone, removal.Status)
	assert.Equal(t, "Removed 1 files.", removal.Message())
	assert.Equal(t, []string{paths[1]}, removal.Removed)
	assert.Equal(t, []string{paths[0]}, removal.Kept)
	assert.EqualValues(t, 1, removal.FreedBytes)
	f.AssertFileExists(paths[0])
	f.AssertFileNotExists(paths[1])
	f.AssertFileExists(f.Path("c"))
}

func TestRemoveAll(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("same bytes", "a", "b", "c")

	e := newEngine(t, f.RootDir, Options{})
	removal, err := e.Remove(0, nil)

	require.NoError(t, err)
	assert.Equal(t, "Removed 3 files.", removal.Message())
	for _, p := range paths {
		f.AssertFileNotExists(p)
	}
}

func TestRemoveNegativeKeepIndex(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("same", "a", "b", "c")

	e := newEngine(t, f.RootDir, Options{})
	// -1 resolves against the keep list, so it keeps member 0
	removal, err := e.Remove(0, []int{-1})

	require.NoError(t, err)
	assert.Len(t, removal.Removed, 2)
	f.AssertFileExists(paths[0])
	f.AssertFileNotExists(paths[1])
	f.AssertFileNotExists(paths[2])
}

func TestRemoveDoesNotModifyKeep(t *testing.T) {
	f := fixture.NewFixture(t)
	f.CreateDuplicates("same", "a", "b")

	e := newEngine(t, f.RootDir, Options{})
	keep := []int{-1}
	_, err := e.Remove(0, keep)

	require.NoError(t, err)
	assert.Equal(t, []int{-1}, keep)
}

func TestRemoveIsIdempotent(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("same", "a", "b", "c")

	e := newEngine(t, f.RootDir, Options{})
	first, err := e.Remove(0, []int{0})
	require.NoError(t, err)
	assert.Len(t, first.Removed, 2)

	second, err := e.Remove(0, []int{0})
	require.NoError(t, err)
	assert.Equal(t, RemovalDone, second.Status)
	assert.Empty(t, second.Removed)
	assert.Equal(t, paths[1:], second.Missing)
	assert.Equal(t, "Removed 0 files.", second.Message())
	f.AssertFileExists(paths[0])
}

func TestRemoveToleratesExternalDeletion(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("pair", "a", "b")

	e := newEngine(t, f.RootDir, Options{})
	require.NoError(t, os.Remove(paths[0]))

	removal, err := e.Remove(0, nil)

	require.NoError(t, err)
	assert.Equal(t, RemovalDone, removal.Status)
	assert.Equal(t, []string{paths[1]}, removal.Removed)
	assert.Equal(t, []string{paths[0]}, removal.Missing)
}

func TestRemoveInvalidGroup(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("pair", "a", "b")

	e := newEngine(t, f.RootDir, Options{})

	for _, idx := range []int{-1, 1, 42} {
		removal, err := e.Remove(idx, nil)
		require.NoError(t, err)
		assert.Equal(t, RemovalInvalidGroup, removal.Status)
		assert.Equal(t, "Invalid group index.", removal.Message())
	}
	for _, p := range paths {
		f.AssertFileExists(p)
	}
}

func TestRemoveNoDuplicates(t *testing.T) {
	f := fixture.NewFixture(t)
	f.CreateTextFile("a", "one")
	f.CreateTextFile("b", "two")

	e := newEngine(t, f.RootDir, Options{})
	removal, err := e.Remove(0, nil)

	require.NoError(t, err)
	assert.Equal(t, RemovalNothing, removal.Status)
}

func TestRemovePermissionDeniedAborts(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("guarded", "a", "b", "c")

	deleter := &fakeDeleter{fail: map[string]error{
		paths[1]: &os.PathError{Op: "remove", Path: paths[1], Err: syscall.EACCES},
	}}
	collector := metrics.New()
	e := newEngine(t, f.RootDir, Options{Deleter: deleter, Metrics: collector})

	removal, err := e.Remove(0, nil)

	require.NoError(t, err)
	assert.Equal(t, RemovalPermissionDenied, removal.Status)
	assert.Equal(t, MsgPermission, removal.Message())
	require.NotNil(t, removal.Err)
	assert.Equal(t, ErrorPermissionDenied, removal.Err.Reason)
	assert.Equal(t, paths[1], removal.Err.Path)

	// the first file stays deleted, the third is never attempted
	assert.Equal(t, []string{paths[0]}, removal.Removed)
	f.AssertFileNotExists(paths[0])
	f.AssertFileExists(paths[1])
	f.AssertFileExists(paths[2])
	assert.Zero(t, deleter.calls[paths[2]])

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.FilesRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.RemovalErrors.WithLabelValues(ErrorPermissionDenied.String())))
}

func TestRemoveRealPermissionDenied(t *testing.T) {
	fixture.SkipIfRoot(t)
	f := fixture.NewFixture(t)
	f.CreateTextFile("a", "locked content")
	locked := f.CreateReadOnlyDir("ro", "b", "locked content")

	e := newEngine(t, f.RootDir, Options{})
	removal, err := e.Remove(0, nil)

	require.NoError(t, err)
	assert.Equal(t, RemovalPermissionDenied, removal.Status)
	assert.Equal(t, []string{f.Path("a")}, removal.Removed)
	f.AssertFileExists(locked)
}

func TestRemoveRetriesBusyFile(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("busy", "a", "b")

	deleter := &fakeDeleter{fail: map[string]error{
		paths[0]: &os.PathError{Op: "remove", Path: paths[0], Err: syscall.EBUSY},
	}}
	e := newEngine(t, f.RootDir, Options{Deleter: deleter})

	removal, err := e.Remove(0, []int{1})

	require.Error(t, err)
	var delErr *DeletionError
	require.True(t, errors.As(err, &delErr))
	assert.Equal(t, ErrorFileInUse, delErr.Reason)
	assert.Equal(t, len(retryDelays)+1, deleter.calls[paths[0]])
	assert.Empty(t, removal.Removed)
}

func TestRemoveRefusesProtectedPath(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("protected", "keep/a", "keep/b")

	e := newEngine(t, f.RootDir, Options{ProtectedPaths: []string{f.Path("keep")}})
	removal, err := e.Remove(0, nil)

	require.NoError(t, err)
	assert.Equal(t, RemovalDone, removal.Status)
	assert.Empty(t, removal.Removed)
	require.Len(t, removal.Refused, 2)
	assert.Equal(t, ErrorInvalidPath, removal.Refused[0].Reason)
	for _, p := range paths {
		f.AssertFileExists(p)
	}
}

func TestRemoveRecordsEvents(t *testing.T) {
	f := fixture.NewFixture(t)
	paths := f.CreateDuplicates("journal", "a", "b")
	rec := &memRecorder{}

	e := newEngine(t, f.RootDir, Options{Recorder: rec})
	_, err := e.Remove(0, []int{0})

	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, paths[1], ev.Path)
	assert.Equal(t, f.RootDir, ev.Root)
	assert.Equal(t, e.Duplicates().Groups[0].Digest, ev.Digest)
	assert.EqualValues(t, len("journal"), ev.Size)
	assert.False(t, ev.Time.IsZero())
}

func TestRemoveDoesNotRefreshDuplicates(t *testing.T) {
	f := fixture.NewFixture(t)
	f.CreateDuplicates("stale", "a", "b")

	e := newEngine(t, f.RootDir, Options{})
	_, err := e.Remove(0, nil)
	require.NoError(t, err)

	assert.Equal(t, KindGroups, e.Duplicates().Kind)
	assert.Len(t, e.Duplicates().Groups[0].Files, 2)
}
