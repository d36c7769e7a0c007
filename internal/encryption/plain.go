package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"prax-go/internal/prax"
)

// ErrNotPlainSnapshot is returned when unsealing data PlainEncryptor did not write.
var ErrNotPlainSnapshot = errors.New("snapshot was not sealed by the plain encryptor")

var plainMarker = []byte("PRAX-PLAIN-SNAPSHOT\n")

// PlainEncryptor seals snapshots by prefixing a marker and leaves the store
// bytes readable. It suits vaults that encrypt at rest, and tests. Once Setup
// pins a passphrase, Unlock requires it.
type PlainEncryptor struct {
	mu         sync.Mutex
	passphrase string
}

var _ prax.Encryptor = (*PlainEncryptor)(nil)

func NewPlainEncryptor() *PlainEncryptor {
	return &PlainEncryptor{}
}

func (e *PlainEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.passphrase = passphrase
	return nil
}

// IsConfigured is always true: plain sealing needs no keys.
func (e *PlainEncryptor) IsConfigured() bool {
	return true
}

func (e *PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, io.MultiReader(bytes.NewReader(plainMarker), r)); err != nil {
		return fmt.Errorf("sealing snapshot: %w", err)
	}
	return nil
}

func (e *PlainEncryptor) Unlock(passphrase string) (prax.DecryptionContext, error) {
	e.mu.Lock()
	pinned := e.passphrase
	e.mu.Unlock()
	if pinned != "" && passphrase != pinned {
		return nil, fmt.Errorf("unlocking snapshot: incorrect passphrase")
	}
	return plainUnsealer{}, nil
}

type plainUnsealer struct{}

func (plainUnsealer) Decrypt(r io.Reader, w io.Writer) error {
	marker := make([]byte, len(plainMarker))
	if _, err := io.ReadFull(r, marker); err != nil || !bytes.Equal(marker, plainMarker) {
		return ErrNotPlainSnapshot
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("unsealing snapshot: %w", err)
	}
	return nil
}
