package dedup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/fskit/internal/progress"
	"github.com/fenilsonani/fskit/internal/testutil"
	"github.com/fenilsonani/fskit/pkg/utils"
)

func newEngine(t *testing.T, root string, opts Options) *Engine {
	t.Helper()
	e, err := New(context.Background(), root, opts)
	require.NoError(t, err)
	return e
}

func TestNewFindsDuplicatePair(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateTextFile("a", "x")
	b := f.CreateTextFile("b", "x")
	f.CreateTextFile("c", "y")

	e := newEngine(t, f.RootDir, Options{})
	r := e.Duplicates()

	require.Equal(t, KindGroups, r.Kind)
	require.Len(t, r.Groups, 1)
	assert.Equal(t, utils.Digest([]byte("x")), r.Groups[0].Digest)
	assert.Equal(t, []string{a, b}, r.Groups[0].Files)
	assert.EqualValues(t, 1, r.Groups[0].Size)
	assert.Equal(t, 1, e.GroupCount())
	assert.Equal(t, f.RootDir, e.Root())
}

func TestNewGroupsAcrossSubdirectories(t *testing.T) {
	f := testutil.NewFixture(t)
	dups1 := f.CreateDuplicates("first content", "one.txt", "sub/one-copy.txt", "sub/deep/one-again.txt")
	dups2 := f.CreateDuplicates("second content", "z/two.txt", "two.txt")
	f.CreateTextFile("unique.txt", "nobody else has this")

	r := newEngine(t, f.RootDir, Options{}).Duplicates()

	require.Equal(t, KindGroups, r.Kind)
	require.Len(t, r.Groups, 2)

	seen := make(map[string]int)
	for _, g := range r.Groups {
		assert.GreaterOrEqual(t, len(g.Files), 2)
		for _, p := range g.Files {
			seen[p]++
		}
	}
	for _, p := range append(dups1, dups2...) {
		assert.Equal(t, 1, seen[p], "%s should be in exactly one group", p)
	}
	assert.NotContains(t, seen, f.Path("unique.txt"))
	assert.Equal(t, 3, r.DuplicateCount())
}

func TestNewIgnoresZeroLengthFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("empty1", nil)
	f.CreateFile("empty2", nil)
	f.CreateTextFile("other", "content")

	r := newEngine(t, f.RootDir, Options{}).Duplicates()

	assert.Equal(t, KindNoDuplicates, r.Kind)
	assert.Empty(t, r.Groups)
	assert.Equal(t, MsgNoDuplicates, r.Message())
}

func TestNewEmptyDirectory(t *testing.T) {
	f := testutil.NewFixture(t)

	e := newEngine(t, f.RootDir, Options{})

	assert.Equal(t, KindEmpty, e.Duplicates().Kind)
	assert.Equal(t, MsgEmpty, e.Duplicates().Message())
	assert.Equal(t, 0, e.GroupCount())

	var buf bytes.Buffer
	require.NoError(t, e.PrintDuplicates(&buf, false))
	assert.Equal(t, "Dir is empty\n", buf.String())

	removal, err := e.Remove(0, nil)
	require.NoError(t, err)
	assert.Equal(t, RemovalNothing, removal.Status)
	assert.Equal(t, "Dir is empty, nothing to remove.", removal.Message())
}

func TestNewAllFilesExcluded(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates("tiny", "a", "b")
	f.CreateDuplicates("also tiny", "skip/c", "skip/d")

	t.Run("min size", func(t *testing.T) {
		r := newEngine(t, f.RootDir, Options{MinSize: 1024}).Duplicates()
		assert.Equal(t, KindEmpty, r.Kind)
	})

	t.Run("min size keeps larger files", func(t *testing.T) {
		r := newEngine(t, f.RootDir, Options{MinSize: 5}).Duplicates()
		require.Equal(t, KindGroups, r.Kind)
		assert.Equal(t, f.Paths("skip/c", "skip/d"), r.Groups[0].Files)
	})

	t.Run("ignored directory", func(t *testing.T) {
		r := newEngine(t, f.RootDir, Options{Ignore: []string{"skip/"}}).Duplicates()
		require.Equal(t, KindGroups, r.Kind)
		require.Len(t, r.Groups, 1)
		assert.Equal(t, f.Paths("a", "b"), r.Groups[0].Files)
	})

	t.Run("ignored file names", func(t *testing.T) {
		r := newEngine(t, f.RootDir, Options{Ignore: []string{"a", "b", "skip/"}}).Duplicates()
		assert.Equal(t, KindEmpty, r.Kind)
	})
}

func TestNewMissingRoot(t *testing.T) {
	f := testutil.NewFixture(t)

	_, err := New(context.Background(), filepath.Join(f.RootDir, "nope"), Options{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootNotFound))
}

func TestNewRootIsFile(t *testing.T) {
	f := testutil.NewFixture(t)
	file := f.CreateTextFile("file.txt", "data")

	_, err := New(context.Background(), file, Options{})

	assert.ErrorIs(t, err, ErrRootNotDir)
}

func TestNewRelativeRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates("same", "a", "b")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(f.RootDir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	e := newEngine(t, ".", Options{})

	assert.Equal(t, f.RootDir, e.Root())
	require.Equal(t, KindGroups, e.Duplicates().Kind)
	assert.Equal(t, f.Paths("a", "b"), e.Duplicates().Groups[0].Files)
}

func TestNewSkipsSymlinks(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)
	target := f.CreateTextFile("real", "linked content")
	f.CreateSymlink(target, "link")

	r := newEngine(t, f.RootDir, Options{}).Duplicates()

	assert.Equal(t, KindNoDuplicates, r.Kind)
}

func TestNewSkipsUnreadableSubdirectory(t *testing.T) {
	testutil.SkipIfRoot(t)
	f := testutil.NewFixture(t)
	f.CreateDuplicates("visible", "a", "b")
	locked := f.CreateUnreadableDir("locked", "c", "visible")

	r := newEngine(t, f.RootDir, Options{}).Duplicates()

	require.Equal(t, KindGroups, r.Kind)
	assert.Equal(t, f.Paths("a", "b"), r.Groups[0].Files)
	require.Len(t, r.Skipped, 1)
	assert.Equal(t, locked, r.Skipped[0].Path)
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	f := testutil.NewFixture(t)
	for i := 0; i < 40; i++ {
		f.CreateTextFile(filepath.Join("d", string(rune('a'+i%26)), testutil.RandomName(8)), string(rune('A'+i%7)))
	}

	sequential := newEngine(t, f.RootDir, Options{Workers: 1}).Duplicates()
	for _, workers := range []int{2, 4, 16} {
		parallel := newEngine(t, f.RootDir, Options{Workers: workers}).Duplicates()
		assert.Equal(t, sequential.Groups, parallel.Groups, "workers=%d", workers)
	}
	assert.Len(t, sequential.Groups, 7)
}

func TestStreamedDigestMatchesInMemory(t *testing.T) {
	f := testutil.NewFixture(t)
	big := strings.Repeat("0123456789", 10)
	f.CreateDuplicates(big, "a", "b")
	f.CreateDuplicates("tiny", "c", "d")
	f.CreateTextFile("e", strings.Repeat("z", 100))

	inMemory := newEngine(t, f.RootDir, Options{Workers: 1}).Duplicates()

	old := streamThreshold
	streamThreshold = 16
	t.Cleanup(func() { streamThreshold = old })

	streamed := newEngine(t, f.RootDir, Options{Workers: 1}).Duplicates()

	assert.Equal(t, inMemory.Groups, streamed.Groups)
	require.Len(t, streamed.Groups, 2)
	assert.Equal(t, utils.Digest([]byte(big)), streamed.Groups[0].Digest)
	assert.EqualValues(t, 100, streamed.Groups[0].Size)
	assert.Equal(t, inMemory.Stats.BytesHashed, streamed.Stats.BytesHashed)
}

func TestNewWarnsWhenRootIsProtected(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates("x", "a", "b")

	logger, hook := logtest.NewNullLogger()
	newEngine(t, f.RootDir, Options{Logger: logger})
	assert.Empty(t, warnings(hook))

	hook.Reset()
	newEngine(t, f.RootDir, Options{Logger: logger, ProtectedPaths: []string{f.RootDir}})
	assert.Len(t, warnings(hook), 1)
}

func warnings(hook *logtest.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestNewCancelled(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates("same", "a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, f.RootDir, Options{Workers: 1})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPublishesProgress(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates("same", "a", "b")
	reporter := progress.NewProgressReporter()

	newEngine(t, f.RootDir, Options{Progress: reporter})

	last := reporter.Last()
	require.NotNil(t, last)
	assert.Equal(t, progress.PhaseComplete, last.Phase)
	assert.Equal(t, 2, last.Done)
}

func TestDefaultWorkers(t *testing.T) {
	n := DefaultWorkers()
	assert.GreaterOrEqual(t, n, 2)
	assert.LessOrEqual(t, n, 16)
}

func TestZeroResultHasNoGroups(t *testing.T) {
	var r Result

	assert.Equal(t, KindInvalid, r.Kind)
	assert.Equal(t, "invalid", r.Kind.String())
	assert.False(t, r.HasGroups())

	e := &Engine{result: &r}
	removal, err := e.Remove(0, nil)
	require.NoError(t, err)
	assert.Equal(t, RemovalNothing, removal.Status)
}
