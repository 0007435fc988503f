package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/fskit/internal/testutil"
)

func TestScanCollectsRegularFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTextFile("a.txt", "hello")
	f.CreateTextFile("sub/b.txt", "hello")
	f.CreateTextFile("sub/deeper/c.txt", "world")
	f.CreateDir("emptydir")

	result := Scan(f.RootDir, Filter{}, nil)

	assert.Equal(t, f.Paths("a.txt", "sub/b.txt", "sub/deeper/c.txt"), result.Files)
	assert.Empty(t, result.Skipped)
	assert.False(t, result.Empty())
}

func TestScanEmptyDirectory(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDir("a/b/c")

	result := Scan(f.RootDir, Filter{}, nil)
	assert.True(t, result.Empty())
}

func TestScanMinSize(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTextFile("small.txt", "abc")
	f.CreateTextFile("exact.txt", "abcdefghij")
	// directories are never size-filtered
	f.CreateTextFile("dir/big.txt", strings.Repeat("x", 100))

	result := Scan(f.RootDir, Filter{MinSize: 10}, nil)
	assert.Equal(t, f.Paths("dir/big.txt", "exact.txt"), result.Files)
}

func TestScanIgnoreDistinguishesDirsAndFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	// a directory named cache and a file named cache
	f.CreateTextFile("cache/data.bin", "x")
	f.CreateTextFile("other/cache", "y")
	f.CreateTextFile("keep/readme.md", "z")

	tests := []struct {
		name   string
		ignore []string
		want   []string
	}{
		{"ignore dir only", []string{"cache/"}, []string{"keep/readme.md", "other/cache"}},
		{"ignore file only", []string{"cache"}, []string{"cache/data.bin", "keep/readme.md"}},
		{"ignore both", []string{"cache", "cache/"}, []string{"keep/readme.md"}},
		{"no ignore", nil, []string{"cache/data.bin", "keep/readme.md", "other/cache"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Scan(f.RootDir, Filter{Ignore: tt.ignore}, nil)
			assert.Equal(t, f.Paths(tt.want...), result.Files)
		})
	}
}

func TestScanAllExcludedLooksEmpty(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTextFile("a.txt", "tiny")
	f.CreateTextFile("skip/b.txt", "a much longer body of text")

	result := Scan(f.RootDir, Filter{MinSize: 5, Ignore: []string{"skip/"}}, nil)
	assert.True(t, result.Empty())
}

func TestScanSkipsSymlinks(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)
	target := f.CreateTextFile("real/file.txt", "content")
	f.CreateSymlink(target, "link.txt")
	f.CreateSymlink(f.Path("real"), "linkdir")
	// a loop must not hang the walker
	f.CreateSymlink(f.RootDir, "real/loop")

	result := Scan(f.RootDir, Filter{}, nil)
	assert.Equal(t, []string{target}, result.Files)
}

func TestScanResolvesCanonicalRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTextFile("sub/a.txt", "a")

	// scanning through a ".." component yields canonical paths
	result := Scan(filepath.Join(f.RootDir, "sub", ".."), Filter{}, nil)
	assert.Equal(t, f.Paths("sub/a.txt"), result.Files)
}

func TestScanPermissionDeniedIsNonFatal(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := testutil.NewFixture(t)
	f.CreateTextFile("ok/a.txt", "a")
	locked := f.CreateUnreadableDir("locked", "hidden.txt", "secret")

	result := Scan(f.RootDir, Filter{}, nil)

	assert.Equal(t, f.Paths("ok/a.txt"), result.Files)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, locked, result.Skipped[0].Path)
	assert.True(t, os.IsPermission(result.Skipped[0].Err))
}

func TestFilterCompileCopiesIgnoreList(t *testing.T) {
	ignore := []string{"a.txt"}
	m := Filter{Ignore: ignore}.Compile()
	ignore[0] = "b.txt"

	f := testutil.NewFixture(t)
	path := f.CreateTextFile("a.txt", "x")
	info, err := os.Lstat(path)
	require.NoError(t, err)

	assert.False(t, m.Accept(Entry{Path: path, Name: "a.txt", Info: info}))
}

func TestTraverseVisitsDepthFirstWithoutRecursion(t *testing.T) {
	f := testutil.NewFixture(t)
	deep := ""
	for i := 0; i < 200; i++ {
		deep = filepath.Join(deep, "d")
	}
	f.CreateTextFile(filepath.Join(deep, "leaf.txt"), "leaf")

	var leaves []string
	Traverse(f.RootDir, func(e Entry) bool {
		if !e.IsDir {
			leaves = append(leaves, e.Name)
		}
		return true
	}, nil)

	assert.Equal(t, []string{"leaf.txt"}, leaves)
}

func TestIsIgnoredDirName(t *testing.T) {
	assert.True(t, IsIgnoredDirName("node_modules", []string{"node_modules"}))
	assert.True(t, IsIgnoredDirName("node_modules", []string{".git/", "node_modules/"}))
	assert.False(t, IsIgnoredDirName("src", []string{"node_modules"}))
}
