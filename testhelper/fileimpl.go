// Package testhelper provides a fault-injecting backend.Storage used to
// simulate a crash partway through a multi-block write (spec.md §8 scenario
// 4/5's "system crashes during an append operation"), without needing an
// actual flaky device. Adapted from the teacher's testhelper.FileImpl, which
// stubbed out a util.File's Read/Write the same way for unit tests.
package testhelper

import (
	"errors"
	"os"

	"github.com/psankar/simplefs/backend"
)

// ErrInjected is returned by FaultyStorage once its configured write budget
// is exhausted.
var ErrInjected = errors.New("testhelper: injected I/O fault")

// FaultyStorage wraps a backend.Storage and fails the (FailAfterWrites+1)th
// WriteAt call onward; FailAfterWrites == 0 disables the fault. This lets a
// test drive a journal commit or a directory append partway through and
// observe that a remount still sees a consistent image.
type FaultyStorage struct {
	backend.Storage
	FailAfterWrites int
	writes          int
}

var _ backend.Storage = (*FaultyStorage)(nil)

func (f *FaultyStorage) Writable() (backend.WritableFile, error) {
	w, err := f.Storage.Writable()
	if err != nil {
		return nil, err
	}
	return &faultyWritable{WritableFile: w, owner: f}, nil
}

// Writes reports how many WriteAt calls have gone through so far, so a test
// can pick a FailAfterWrites value relative to a known-good run.
func (f *FaultyStorage) Writes() int { return f.writes }

// Sys is forwarded unchanged; fault injection only targets writes.
func (f *FaultyStorage) Sys() (*os.File, error) { return f.Storage.Sys() }

type faultyWritable struct {
	backend.WritableFile
	owner *FaultyStorage
}

var _ backend.WritableFile = (*faultyWritable)(nil)

func (w *faultyWritable) WriteAt(b []byte, off int64) (int, error) {
	w.owner.writes++
	if w.owner.FailAfterWrites > 0 && w.owner.writes > w.owner.FailAfterWrites {
		return 0, ErrInjected
	}
	return w.WritableFile.WriteAt(b, off)
}
