package simplefs

import "errors"

// Sentinel errors forming the taxonomy of spec.md §7. Each is surfaced
// verbatim to callers; none are recovered internally.
var (
	ErrBadMagic           = errors.New("simplefs: bad superblock magic")
	ErrBadBlockSize       = errors.New("simplefs: bad superblock block size")
	ErrUnsupportedVersion = errors.New("simplefs: unsupported superblock version")
	ErrIoError            = errors.New("simplefs: block i/o error")
	ErrNoSpace            = errors.New("simplefs: no space left")
	ErrNotFound            = errors.New("simplefs: not found")
	ErrNotDir             = errors.New("simplefs: not a directory")
	ErrInvalidArg         = errors.New("simplefs: invalid argument")
	ErrDirFull            = errors.New("simplefs: directory full")
	ErrInterrupted        = errors.New("simplefs: interrupted")
	ErrJournalInitFailed  = errors.New("simplefs: journal init failed")
	ErrJournalIo          = errors.New("simplefs: journal i/o error")
)
