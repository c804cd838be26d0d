package store

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the store lock
var ErrLocked = errors.New("episodes file is locked by another process")

// Lock is an advisory lock on an episodes file for read-modify-write runs
type Lock struct {
	lock *flock.Flock
}

// Acquire takes the lock on <path>.lock without blocking
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path + ".lock")

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{lock: fl}, nil
}

// Release frees the lock
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// Update loads the file under lock, applies fn and saves when fn reports a
// change. Changes are saved even when fn also returns an error.
func Update(path string, fn func(doc *Document) (bool, error)) error {
	lock, err := Acquire(path)
	if err != nil {
		return err
	}
	defer lock.Release()

	fs := NewFileStore(path)
	doc, err := fs.Load()
	if err != nil {
		return err
	}

	changed, fnErr := fn(doc)
	if changed {
		if err := fs.Save(doc); err != nil {
			return errors.Join(fnErr, err)
		}
	}
	return fnErr
}
