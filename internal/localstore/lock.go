package localstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	lockDirSuffix = ".lock"
	lockOwnerFile = "owner.json"
)

// BatchLock guards a job against two concurrent upload batches started from
// separate processes.
type BatchLock struct {
	lockDir string
}

type LockOwner struct {
	Key       string `json:"key"`
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

func AcquireBatchLock(locksDir, key string) (BatchLock, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return BatchLock{}, fmt.Errorf("lock key is required")
	}
	if err := Mkdir(locksDir); err != nil {
		return BatchLock{}, err
	}

	lockDir := filepath.Join(locksDir, key+lockDirSuffix)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			var owner LockOwner
			if readErr := ReadJSON(filepath.Join(lockDir, lockOwnerFile), &owner); readErr == nil && owner.PID > 0 && owner.CreatedAt != "" {
				return BatchLock{}, fmt.Errorf(
					"upload already in progress for %s (pid=%d created_at=%s host=%s)",
					key, owner.PID, owner.CreatedAt, owner.Hostname,
				)
			}
			return BatchLock{}, fmt.Errorf("upload already in progress for %s", key)
		}
		return BatchLock{}, fmt.Errorf("acquire batch lock for %s: %w", key, err)
	}

	owner := LockOwner{
		Key:       key,
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	if err := WriteJSON(filepath.Join(lockDir, lockOwnerFile), owner, 0o644); err != nil {
		_ = os.Remove(lockDir)
		return BatchLock{}, fmt.Errorf("write batch lock owner for %s: %w", key, err)
	}

	return BatchLock{lockDir: lockDir}, nil
}

func (l BatchLock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, lockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release batch lock %s: %w", l.lockDir, err)
	}
	return nil
}

// ListLocks reports every held batch lock, oldest key first. Locks whose
// owner file is unreadable are returned with only Key set.
func ListLocks(locksDir string) ([]LockOwner, error) {
	entries, err := os.ReadDir(locksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []LockOwner{}, nil
		}
		return nil, fmt.Errorf("read locks directory %s: %w", locksDir, err)
	}

	out := make([]LockOwner, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), lockDirSuffix) {
			continue
		}
		key := strings.TrimSuffix(e.Name(), lockDirSuffix)
		var owner LockOwner
		if err := ReadJSON(filepath.Join(locksDir, e.Name(), lockOwnerFile), &owner); err != nil {
			owner = LockOwner{}
		}
		owner.Key = key
		out = append(out, owner)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
