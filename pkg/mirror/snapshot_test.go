package mirror

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

type mockFile struct {
	path     string
	contents string
	modTime  time.Time
}

func (f mockFile) writeToFs(t *testing.T) {
	assert.NoError(t, afero.WriteFile(fs, f.path, []byte(f.contents), 0644))
	assert.NoError(t, fs.Chtimes(f.path, f.modTime, f.modTime))
}

func TestScan(t *testing.T) {
	fs = afero.NewMemMapFs()

	timeOne := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	timeTwo := timeOne.Add(time.Hour)

	assert.NoError(t, fs.MkdirAll("/src/docs/drafts", 0755))
	mockFile{path: "/src/readme.txt", contents: "hello", modTime: timeOne}.writeToFs(t)
	mockFile{path: "/src/docs/notes.txt", contents: "0123456789", modTime: timeTwo}.writeToFs(t)

	exp := Snapshot{
		Dirs: map[string]Directory{
			"docs":        {RelPath: "docs"},
			"docs/drafts": {RelPath: "docs/drafts"},
		},
		Files: map[string]File{
			"readme.txt": {
				RelPath:        "readme.txt",
				FileAttributes: FileAttributes{Size: 5, ModTime: timeOne},
			},
			"docs/notes.txt": {
				RelPath:        "docs/notes.txt",
				FileAttributes: FileAttributes{Size: 10, ModTime: timeTwo},
			},
		},
	}

	snapshot, err := Scan("/src")
	assert.NoError(t, err)
	assert.Equal(t, exp, snapshot)
}

func TestScanEmptyRoot(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, fs.MkdirAll("/empty", 0755))

	snapshot, err := Scan("/empty")
	assert.NoError(t, err)
	assert.Empty(t, snapshot.Dirs)
	assert.Empty(t, snapshot.Files)
}

func TestScanMissingRoot(t *testing.T) {
	fs = afero.NewMemMapFs()

	_, err := Scan("/does-not-exist")
	assert.Equal(t, errors.FileNotFound{Path: "/does-not-exist"}, err)
}

func TestScanRootNotDirectory(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockFile{path: "/file.txt", contents: "x", modTime: time.Now()}.writeToFs(t)

	_, err := Scan("/file.txt")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		relPath string
		exp     string
	}{
		{
			name:    "Nested",
			root:    "/dst",
			relPath: "docs/notes.txt",
			exp:     "/dst/docs/notes.txt",
		},
		{
			name:    "TopLevel",
			root:    "/dst",
			relPath: "readme.txt",
			exp:     "/dst/readme.txt",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Resolve(test.root, test.relPath))
		})
	}
}
