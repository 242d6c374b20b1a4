package patch

import (
	"bytes"
	"os"
	"path/filepath"
)

// FileState is one path's existence and raw content at snapshot time.
// Exists true with nil Content means the file was present but
// unreadable.
type FileState struct {
	Exists  bool
	Content []byte
}

// Snapshot records the current state of each relative path under dir.
// Snapshots live only for the duration of one apply attempt.
func Snapshot(dir string, paths []string) map[string]FileState {
	states := make(map[string]FileState, len(paths))
	for _, rel := range paths {
		states[rel] = readState(filepath.Join(dir, rel))
	}
	return states
}

// Changed reports whether any path differs from its snapshot, in
// existence or in bytes. An empty path list counts as changed: a patch
// with no parseable file headers is not evidence that nothing happened,
// and a false negative here would reject an apply that worked. An
// unreadable file is treated as changed for the same reason.
func Changed(dir string, paths []string, before map[string]FileState) bool {
	if len(paths) == 0 {
		return true
	}
	for _, rel := range paths {
		full := filepath.Join(dir, rel)
		prev := before[rel]
		_, statErr := os.Stat(full)
		exists := statErr == nil
		if exists != prev.Exists {
			return true
		}
		if !exists {
			continue
		}
		content, err := os.ReadFile(full)
		if err != nil {
			// unknown post-state counts as changed
			return true
		}
		if !bytes.Equal(content, prev.Content) {
			return true
		}
	}
	return false
}

func readState(path string) FileState {
	if _, err := os.Stat(path); err != nil {
		return FileState{}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return FileState{Exists: true}
	}
	return FileState{Exists: true, Content: content}
}
