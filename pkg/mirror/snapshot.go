package mirror

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

// A Directory is a directory that exists under a snapshot root.
type Directory struct {
	// RelPath is the slash-separated path of the directory relative to the
	// snapshot root. It's the identity used for comparing directories across
	// trees.
	RelPath string
}

// FileAttributes contains the metadata used to compare whether two files are
// equal. Contents are deliberately not part of the comparison -- size and
// modification time stand in for them.
type FileAttributes struct {
	// Size is the size of the file in bytes at scan time.
	Size int64

	// ModTime is the time of the last file modification at scan time.
	ModTime time.Time
}

// Equal returns whether two files are equal (i.e. whether a copy is
// necessary).
func (f FileAttributes) Equal(other FileAttributes) bool {
	return f.Size == other.Size && f.ModTime.Equal(other.ModTime)
}

// A File is a regular file that exists under a snapshot root.
type File struct {
	// RelPath is the slash-separated path of the file relative to the
	// snapshot root.
	RelPath string

	FileAttributes
}

// Snapshot is a point-in-time capture of the directories and files under one
// root. It's never updated after capture -- the engine works entirely off the
// snapshots taken at the start of a run, so changes to the live filesystem
// during a run aren't seen until the next run.
type Snapshot struct {
	Dirs  map[string]Directory
	Files map[string]File
}

// Scan captures a Snapshot of the tree rooted at root. The root itself isn't
// included in the snapshot.
// It fails if the root doesn't exist or any part of the tree can't be
// traversed. A partial snapshot is never returned: classifying operations
// against an incomplete view of either tree could delete entries that still
// exist.
func Scan(root string) (Snapshot, error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, errors.FileNotFound{Path: root}
		}
		return Snapshot{}, errors.WithContext(err, "stat root")
	}
	if !fi.IsDir() {
		return Snapshot{}, errors.NewFriendlyError("%q is not a directory", root)
	}

	snapshot := Snapshot{
		Dirs:  map[string]Directory{},
		Files: map[string]File{},
	}
	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(relPath, "..") {
			return errors.WithContext(err, "normalize path")
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if fi.IsDir() {
			snapshot.Dirs[relPath] = Directory{RelPath: relPath}
			return nil
		}
		snapshot.Files[relPath] = File{
			RelPath: relPath,
			FileAttributes: FileAttributes{
				Size:    fi.Size(),
				ModTime: fi.ModTime(),
			},
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, errors.WithContext(err, "walk tree")
	}
	return snapshot, nil
}

// Resolve maps an entity's relative path back onto a concrete root. It's a
// pure path rewrite with no filesystem access: relative paths are
// root-independent, so the same RelPath identifies the corresponding entity
// in either tree.
func Resolve(root, relPath string) string {
	return filepath.Join(root, filepath.FromSlash(relPath))
}
