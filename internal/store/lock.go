package store

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

var ErrLocked = eris.New("data dir is locked by another engine")

// DirLock holds an exclusive lock file inside the data dir so only one
// engine serves a given sqlite file.
type DirLock struct {
	fl *flock.Flock
}

func LockDataDir(dataDir string) (*DirLock, error) {
	fl := flock.New(filepath.Join(dataDir, "engine.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrap(err, "lock: acquire")
	}
	if !ok {
		return nil, ErrLocked
	}
	return &DirLock{fl: fl}, nil
}

func (l *DirLock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return eris.Wrap(l.fl.Unlock(), "lock: release")
}
