package fswatch

import (
	"sort"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

func TestGetPathsToWatch(t *testing.T) {
	tests := []struct {
		name     string
		dirs     []string
		files    []string
		root     string
		expPaths []string
	}{
		{
			name:     "NestedTree",
			dirs:     []string{"/src/a", "/src/a/b", "/src/c"},
			files:    []string{"/src/a/x.txt", "/src/c/y.txt"},
			root:     "/src",
			expPaths: []string{"/src", "/src/a", "/src/a/b", "/src/c"},
		},
		{
			name:     "FlatRoot",
			dirs:     []string{"/src"},
			files:    []string{"/src/x.txt"},
			root:     "/src",
			expPaths: []string{"/src"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			for _, dir := range test.dirs {
				assert.NoError(t, fs.MkdirAll(dir, 0755))
			}
			for _, file := range test.files {
				assert.NoError(t, afero.WriteFile(fs, file, []byte("x"), 0644))
			}

			paths, err := getPathsToWatch(test.root)
			assert.NoError(t, err)

			sort.Strings(paths)
			assert.Equal(t, test.expPaths, paths)
		})
	}
}

func TestGetPathsToWatchMissingRoot(t *testing.T) {
	fs = afero.NewMemMapFs()

	_, err := getPathsToWatch("/does-not-exist")
	assert.Equal(t, errors.FileNotFound{Path: "/does-not-exist"}, err)
}

func TestCombineUpdates(t *testing.T) {
	updates := make(chan fsnotify.Event)
	combined := combineUpdates(updates)

	// A burst of events collapses into a single pending notification.
	for i := 0; i < 5; i++ {
		updates <- fsnotify.Event{Name: "/src/x.txt", Op: fsnotify.Write}
	}

	select {
	case <-combined:
	case <-time.After(time.Second):
		t.Fatal("expected a combined update")
	}

	select {
	case <-combined:
		// At most one more may have been buffered while the burst drained.
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-combined:
		t.Fatal("expected the updates to be coalesced")
	case <-time.After(100 * time.Millisecond):
	}
}
