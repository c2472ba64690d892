package mirror

import (
	"io"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

// OpKind identifies the type of filesystem operation a record describes.
type OpKind string

const (
	OpDeleteFile OpKind = "delete-file"
	OpDeleteDir  OpKind = "delete-dir"
	OpCreateDir  OpKind = "create-dir"
	OpCopyFile   OpKind = "copy-file"
)

// OperationRecord is the outcome of one attempted filesystem operation. The
// Reconciler creates exactly one per classified item, and never mutates it
// afterwards.
type OperationRecord struct {
	Kind OpKind

	// Path is the relative path of the entity the operation targeted.
	Path string

	// Err is nil if the operation succeeded.
	Err error

	// Bytes is the number of bytes transferred by a successful file copy.
	Bytes int64
}

// Reconciler applies a Classification against the live filesystem.
type Reconciler struct {
	// Source and Destination are the absolute roots the relative paths in
	// the classification resolve against.
	Source      string
	Destination string
}

// Apply executes the classified operations in a fixed order chosen to avoid
// structural conflicts: all deletions complete before any creations begin,
// and directories exist before files are copied into them.
// Each item is attempted independently. A failure is captured in the item's
// record and the batch continues -- no operation is retried, and no failure
// aborts the run.
func (r Reconciler) Apply(c Classification) []OperationRecord {
	records := make([]OperationRecord, 0,
		len(c.FilesToDelete)+len(c.DirsToDelete)+len(c.DirsToCreate)+len(c.FilesToCopy))

	for _, f := range c.FilesToDelete {
		records = append(records, r.deleteFile(f))
	}

	// Children sort after their parents, so walking the list backwards
	// removes them first and each removal is accounted to its own record.
	dirsToDelete := sortedDirs(c.DirsToDelete)
	for i := len(dirsToDelete) - 1; i >= 0; i-- {
		records = append(records, r.deleteDir(dirsToDelete[i]))
	}

	// Parents sort before their children, so each directory's parents exist
	// by the time it's created. MkdirAll would cover gaps regardless.
	for _, d := range sortedDirs(c.DirsToCreate) {
		records = append(records, r.createDir(d))
	}

	for _, f := range c.FilesToCopy {
		records = append(records, r.copyFile(f))
	}

	return records
}

func (r Reconciler) deleteFile(f File) OperationRecord {
	rec := OperationRecord{Kind: OpDeleteFile, Path: f.RelPath}
	if err := fs.Remove(Resolve(r.Destination, f.RelPath)); err != nil {
		rec.Err = errors.WithContext(err, "remove file")
	}
	return rec
}

func (r Reconciler) deleteDir(d Directory) OperationRecord {
	rec := OperationRecord{Kind: OpDeleteDir, Path: d.RelPath}

	// The directory may still contain stale children that aren't listed in
	// the classification, so the removal is recursive.
	if err := fs.RemoveAll(Resolve(r.Destination, d.RelPath)); err != nil {
		rec.Err = errors.WithContext(err, "remove directory")
	}
	return rec
}

func (r Reconciler) createDir(d Directory) OperationRecord {
	rec := OperationRecord{Kind: OpCreateDir, Path: d.RelPath}

	// MkdirAll treats an already existing directory as success, which makes
	// creation idempotent.
	if err := fs.MkdirAll(Resolve(r.Destination, d.RelPath), 0755); err != nil {
		rec.Err = errors.WithContext(err, "create directory")
	}
	return rec
}

func (r Reconciler) copyFile(f File) OperationRecord {
	rec := OperationRecord{Kind: OpCopyFile, Path: f.RelPath}
	rec.Err = r.copyFileContents(f)
	if rec.Err == nil {
		rec.Bytes = f.Size
	} else {
		log.WithError(rec.Err).WithField("path", f.RelPath).Debug("Copy failed")
	}
	return rec
}

func (r Reconciler) copyFileContents(f File) error {
	src, err := fs.Open(Resolve(r.Source, f.RelPath))
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer src.Close()

	dstPath := Resolve(r.Destination, f.RelPath)
	dst, err := fs.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		return errors.WithContext(err, "copy contents")
	}
	if err := dst.Close(); err != nil {
		return errors.WithContext(err, "close destination")
	}

	if n != f.Size {
		return errors.ErrFileChanged
	}

	// Stamp the copy with the source's modification time so the next scan
	// sees the two files as equal.
	if err := fs.Chtimes(dstPath, f.ModTime, f.ModTime); err != nil {
		return errors.WithContext(err, "set modification time")
	}
	return nil
}

func sortedDirs(dirs []Directory) []Directory {
	sorted := append([]Directory{}, dirs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RelPath < sorted[j].RelPath
	})
	return sorted
}
