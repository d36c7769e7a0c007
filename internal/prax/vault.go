package prax

import (
	"errors"
	"io"
)

// ErrSnapshotNotFound is returned by GetSnapshot when nothing is stored under the name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Vault is remote storage for store snapshots.
// Snapshots are streamed so large stores are never loaded into memory.
type Vault interface {
	// PutSnapshot stores a named snapshot for a host, replacing any previous one.
	// size is the number of bytes that will be read from r. version is stored
	// alongside so newer local stores are never overwritten by older snapshots.
	PutSnapshot(hostID string, name string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the named snapshot for a host to w.
	GetSnapshot(hostID string, name string, w io.Writer) error

	// SnapshotVersion returns the stored version, or 0 if nothing was stored.
	SnapshotVersion(hostID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup() error
}
