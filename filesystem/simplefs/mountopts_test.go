package simplefs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/psankar/simplefs/blockdev"
)

func TestParseMountOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    string
		want    MountOptions
		wantErr error // checked with errors.Is; nil means "any non-nil error is wrong"
	}{
		{
			name: "empty string mounts with an inode-backed journal",
			opts: "",
			want: MountOptions{},
		},
		{
			name: "journal_dev sets the device number",
			opts: "journal_dev=3",
			want: MountOptions{JournalDevNum: 3, HasJournalDevNum: true},
		},
		{
			name:    "journal_dev with a non-numeric value",
			opts:    "journal_dev=notanumber",
			wantErr: ErrInvalidArg,
		},
		{
			name: "journal_path naming a nonexistent file is inode-backed",
			opts: "journal_path=/does/not/exist/anywhere",
			want: MountOptions{},
		},
		{
			name:    "malformed key=value pair",
			opts:    "journal_dev",
			wantErr: ErrInvalidArg,
		},
		{
			name:    "unknown mount option",
			opts:    "nosuchoption=1",
			wantErr: ErrInvalidArg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMountOptions(tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseMountOptions(%q) error = %v, want %v", tt.opts, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMountOptions(%q): %v", tt.opts, err)
			}
			if *got != tt.want {
				t.Fatalf("ParseMountOptions(%q) = %+v, want %+v", tt.opts, *got, tt.want)
			}
		})
	}
}

// TestParseMountOptionsJournalPathStatError covers the branch where
// blockdev.IsBlockSpecial itself fails, distinct from "path does not
// exist": a path that tries to descend through a regular file as though it
// were a directory returns ENOTDIR, not ENOENT.
func TestParseMountOptionsJournalPathStatError(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "regular-file")
	if err := os.WriteFile(regular, []byte("not a directory"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	badPath := filepath.Join(regular, "nested")

	_, err := ParseMountOptions("journal_path=" + badPath)
	if !errors.Is(err, ErrJournalInitFailed) {
		t.Fatalf("ParseMountOptions error = %v, want wrapping ErrJournalInitFailed", err)
	}
}

// TestParseMountOptionsJournalPathBlockSpecial covers journal_path naming
// an actual block special file, folding it into the journal_dev-style
// attach. Skips where the sandbox has no block device to stat (e.g. no
// /dev/loop0, or a non-Unix platform where blockdev.IsBlockSpecial always
// reports false).
func TestParseMountOptionsJournalPathBlockSpecial(t *testing.T) {
	const candidate = "/dev/loop0"
	special, err := blockdev.IsBlockSpecial(candidate)
	if err != nil || !special {
		t.Skipf("no block special device at %s in this environment", candidate)
	}

	got, err := ParseMountOptions("journal_path=" + candidate)
	if err != nil {
		t.Fatalf("ParseMountOptions: %v", err)
	}
	if !got.HasJournalDevNum {
		t.Fatal("expected HasJournalDevNum=true for a block special journal_path")
	}
	if got.JournalDevPath != candidate {
		t.Fatalf("JournalDevPath = %q, want %q", got.JournalDevPath, candidate)
	}
}

func TestUsesInodeBackedJournal(t *testing.T) {
	tests := []struct {
		name string
		opts MountOptions
		want bool
	}{
		{name: "no journal option", opts: MountOptions{}, want: true},
		{name: "journal_dev given", opts: MountOptions{HasJournalDevNum: true, JournalDevNum: 3}, want: false},
		{name: "journal_path resolved to a block device", opts: MountOptions{HasJournalDevNum: true, JournalDevPath: "/dev/loop0"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.UsesInodeBackedJournal(); got != tt.want {
				t.Errorf("UsesInodeBackedJournal() = %v, want %v", got, tt.want)
			}
		})
	}
}
