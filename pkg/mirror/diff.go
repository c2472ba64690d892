package mirror

// Classification is the set of operations needed to make a destination tree
// match a source tree. The lists carry no ordering guarantee -- execution
// order is the Reconciler's concern.
type Classification struct {
	// FilesToDelete are destination files whose path doesn't exist in the
	// source. A destination file whose path does exist is never deleted, even
	// if its attributes differ; it shows up in FilesToCopy as an overwrite
	// instead.
	FilesToDelete []File

	// DirsToDelete are destination directories whose path doesn't exist in
	// the source. Their contents may include stale children that aren't
	// individually listed.
	DirsToDelete []Directory

	// DirsToCreate are source directories missing from the destination.
	// Directories have no contents to overwrite, so there's no update
	// operation: existence is the only thing that matters.
	DirsToCreate []Directory

	// FilesToCopy are source files that are either missing from the
	// destination or present with a different size or modification time.
	FilesToCopy []File
}

// Empty returns whether the classification is a no-op, i.e. the destination
// already matches the source.
func (c Classification) Empty() bool {
	return len(c.FilesToDelete) == 0 && len(c.DirsToDelete) == 0 &&
		len(c.DirsToCreate) == 0 && len(c.FilesToCopy) == 0
}

// Diff classifies the operations needed to make dst match src.
// Directories are compared by relative path alone. Files are compared by
// relative path, size, and modification time -- any mismatch schedules a full
// re-copy. This asymmetry is the deliberate policy, not an accident of a
// generic comparison.
func (src Snapshot) Diff(dst Snapshot) Classification {
	var c Classification

	for _, f := range dst.Files {
		if _, ok := src.Files[f.RelPath]; !ok {
			c.FilesToDelete = append(c.FilesToDelete, f)
		}
	}
	for _, d := range dst.Dirs {
		if _, ok := src.Dirs[d.RelPath]; !ok {
			c.DirsToDelete = append(c.DirsToDelete, d)
		}
	}

	// A freshly created destination has nothing to compare against, so
	// everything in the source is scheduled without any lookups.
	if len(dst.Dirs) == 0 {
		for _, d := range src.Dirs {
			c.DirsToCreate = append(c.DirsToCreate, d)
		}
	} else {
		for _, d := range src.Dirs {
			if _, ok := dst.Dirs[d.RelPath]; !ok {
				c.DirsToCreate = append(c.DirsToCreate, d)
			}
		}
	}

	if len(dst.Files) == 0 {
		for _, f := range src.Files {
			c.FilesToCopy = append(c.FilesToCopy, f)
		}
	} else {
		for _, f := range src.Files {
			curr, ok := dst.Files[f.RelPath]
			if !ok || !curr.FileAttributes.Equal(f.FileAttributes) {
				c.FilesToCopy = append(c.FilesToCopy, f)
			}
		}
	}

	return c
}
