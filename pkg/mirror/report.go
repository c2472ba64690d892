package mirror

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Summary is the aggregated outcome of a reconciliation run. It's derived
// entirely from the operation records -- the Reconciler itself keeps no
// counters, so the two stay independently testable.
type Summary struct {
	DirsCreated int
	FilesCopied int
	BytesCopied int64

	DirsDeleted  int
	FilesDeleted int

	FailedDirCreates  int
	FailedFileCopies  int
	FailedDirDeletes  int
	FailedFileDeletes int
}

// Summarize reduces a run's operation records into a Summary. It performs no
// I/O; rendering the summary is the caller's job.
func Summarize(records []OperationRecord) Summary {
	var s Summary
	for _, rec := range records {
		switch rec.Kind {
		case OpDeleteFile:
			if rec.Err != nil {
				s.FailedFileDeletes++
			} else {
				s.FilesDeleted++
			}
		case OpDeleteDir:
			if rec.Err != nil {
				s.FailedDirDeletes++
			} else {
				s.DirsDeleted++
			}
		case OpCreateDir:
			if rec.Err != nil {
				s.FailedDirCreates++
			} else {
				s.DirsCreated++
			}
		case OpCopyFile:
			if rec.Err != nil {
				s.FailedFileCopies++
			} else {
				s.FilesCopied++
				s.BytesCopied += rec.Bytes
			}
		}
	}
	return s
}

// Failures returns the total number of failed operations across all
// categories. A nonzero value is the primary signal of a degraded run.
func (s Summary) Failures() int {
	return s.FailedDirCreates + s.FailedFileCopies +
		s.FailedDirDeletes + s.FailedFileDeletes
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"%d dirs created, %d files copied (%d bytes), "+
			"%d dirs deleted, %d files deleted, %d failures",
		s.DirsCreated, s.FilesCopied, s.BytesCopied,
		s.DirsDeleted, s.FilesDeleted, s.Failures())
}

// Fields exposes the summary counters for structured logging.
func (s Summary) Fields() log.Fields {
	return log.Fields{
		"dirsCreated":       s.DirsCreated,
		"filesCopied":       s.FilesCopied,
		"bytesCopied":       s.BytesCopied,
		"dirsDeleted":       s.DirsDeleted,
		"filesDeleted":      s.FilesDeleted,
		"failedDirCreates":  s.FailedDirCreates,
		"failedFileCopies":  s.FailedFileCopies,
		"failedDirDeletes":  s.FailedDirDeletes,
		"failedFileDeletes": s.FailedFileDeletes,
	}
}
