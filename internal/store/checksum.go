package store

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"time"
)

// fileState is what the analyzer's loader tracks per file to detect edits
// made behind its back: modification time as the fast check, md5 checksum as
// the authoritative one.
type fileState struct {
	modTime  time.Time
	checksum string
}

// remember records the state of a file after a successful read or write.
func (s *Store) remember(path string, data []byte) {
	st := fileState{checksum: checksum(data)}
	if info, err := os.Stat(path); err == nil {
		st.modTime = info.ModTime()
	}
	s.mu.Lock()
	s.states[path] = st
	s.mu.Unlock()
}

// hasChanged reports whether the file differs from the last remembered
// state. An unknown file counts as changed.
func (s *Store) hasChanged(path string) (bool, error) {
	s.mu.Lock()
	prev, known := s.states[path]
	s.mu.Unlock()
	if !known {
		return true, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return true, err
	}
	if info.ModTime().Equal(prev.modTime) {
		return false, nil
	}

	// mtime moved; the contents may still be identical.
	data, err := os.ReadFile(path)
	if err != nil {
		return true, err
	}
	if checksum(data) == prev.checksum {
		s.mu.Lock()
		prev.modTime = info.ModTime()
		s.states[path] = prev
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func checksum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
