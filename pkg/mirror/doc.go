/*
The mirror package implements the reconciliation engine. It makes a
destination directory tree exactly match a source tree in four phases:

1) Scan both roots into Snapshots of directories and files keyed by their
   path relative to the root.
2) Diff the snapshots into the operations needed to converge the destination:
   stale files and directories to delete, missing directories to create, and
   missing or changed files to copy.
3) Apply the operations in a fixed order (delete files, delete directories,
   create directories, copy files). Each item is attempted independently; a
   failure is recorded and the rest of the batch continues.
4) Summarize the per-operation records into the final tally.

Files are compared by relative path, size, and modification time. Contents
are never read, so two files with matching metadata are assumed identical.
Directories are compared by relative path alone.
*/
package mirror
