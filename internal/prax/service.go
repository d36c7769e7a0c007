package prax

import (
	"context"
	"fmt"
	"io"
	"os"

	"prax-go/internal/model"
)

const (
	snapshotName          = "db"
	encryptedSnapshotName = "db.age"
)

// Service provides the maintenance operations around the mirror: history,
// status, reset and snapshot export.
type Service struct {
	store     RecordStore
	vault     Vault
	encryptor Encryptor
	hostID    string
	logger    Logger
}

// NewService creates a Service. vault and encryptor may be nil when snapshots
// are not used; a nil encryptor uploads snapshots unencrypted.
func NewService(store RecordStore, vault Vault, encryptor Encryptor, hostID string, logger Logger) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Service{
		store:     store,
		vault:     vault,
		encryptor: encryptor,
		hostID:    hostID,
		logger:    logger,
	}
}

// History returns the most recent import runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*model.ImportRun, error) {
	runs, err := s.store.ListImportRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	return runs, nil
}

// MirrorStatus summarizes the store and the last successful run of each pass.
type MirrorStatus struct {
	Stats         model.Stats
	LastCompleted map[model.Pass]*model.ImportRun
}

// Status returns record totals and the last completed run per pass.
func (s *Service) Status(ctx context.Context) (*MirrorStatus, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading store stats: %w", err)
	}

	st := &MirrorStatus{
		Stats:         *stats,
		LastCompleted: make(map[model.Pass]*model.ImportRun),
	}
	for _, pass := range []model.Pass{model.PassFolders, model.PassAlbums, model.PassAssets} {
		run, err := s.store.LastCompletedRun(ctx, pass)
		if err != nil {
			return nil, fmt.Errorf("finding last %s run: %w", pass, err)
		}
		if run != nil {
			st.LastCompleted[pass] = run
		}
	}
	return st, nil
}

// Reset deletes every mirrored record so the next passes rebuild from scratch.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}
	s.logger.Info("store reset")
	return nil
}

// PushSnapshot copies the store to the vault and returns the uploaded version.
// The version is the number of completed import runs; pushing is refused when
// the vault already holds a newer snapshot.
func (s *Service) PushSnapshot(ctx context.Context) (int64, error) {
	if s.vault == nil {
		return 0, fmt.Errorf("no vault configured")
	}

	name := snapshotName
	if s.encryptor != nil {
		name = encryptedSnapshotName
	}

	local, err := s.store.CountCompletedRuns(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking local snapshot version: %w", err)
	}
	remote, err := s.vault.SnapshotVersion(s.hostID, name)
	if err != nil {
		return 0, fmt.Errorf("checking remote snapshot version: %w", err)
	}
	if remote > local {
		return 0, fmt.Errorf("local store is behind remote (local=%d, remote=%d): pull the snapshot or re-import", local, remote)
	}

	tmpPath, err := emptyTempFile("prax-snapshot-*.db")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmpPath)

	if err := s.store.BackupTo(tmpPath); err != nil {
		return 0, fmt.Errorf("copying store: %w", err)
	}

	uploadPath := tmpPath
	if s.encryptor != nil {
		sealedPath, err := s.seal(tmpPath)
		if err != nil {
			return 0, err
		}
		defer os.Remove(sealedPath)
		uploadPath = sealedPath
	}

	if err := s.upload(uploadPath, name, local); err != nil {
		return 0, err
	}
	s.logger.Info("snapshot pushed", "name", name, "version", local)
	return local, nil
}

// PullSnapshot downloads the newest snapshot for this host into destPath.
// passphrase is only called when the snapshot is encrypted.
func (s *Service) PullSnapshot(ctx context.Context, destPath string, passphrase func() (string, error)) error {
	if s.vault == nil {
		return fmt.Errorf("no vault configured")
	}

	encVersion, err := s.vault.SnapshotVersion(s.hostID, encryptedSnapshotName)
	if err != nil {
		return fmt.Errorf("checking remote snapshot version: %w", err)
	}
	plainVersion, err := s.vault.SnapshotVersion(s.hostID, snapshotName)
	if err != nil {
		return fmt.Errorf("checking remote snapshot version: %w", err)
	}
	if encVersion == 0 && plainVersion == 0 {
		return fmt.Errorf("no snapshot stored for host %s", s.hostID)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()

	if plainVersion >= encVersion {
		if err := s.vault.GetSnapshot(s.hostID, snapshotName, out); err != nil {
			return fmt.Errorf("downloading snapshot: %w", err)
		}
		return out.Close()
	}

	if s.encryptor == nil {
		return fmt.Errorf("snapshot is encrypted but no encryptor is configured")
	}
	pass, err := passphrase()
	if err != nil {
		return fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := s.encryptor.Unlock(pass)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.vault.GetSnapshot(s.hostID, encryptedSnapshotName, pw))
	}()
	if err := dec.Decrypt(pr, out); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	return out.Close()
}

func (s *Service) seal(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp("", "prax-snapshot-*.age")
	if err != nil {
		return "", fmt.Errorf("creating temp file for sealed snapshot: %w", err)
	}
	if err := s.encryptor.Encrypt(in, out); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("closing sealed snapshot: %w", err)
	}
	return out.Name(), nil
}

func (s *Service) upload(path, name string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	if err := s.vault.PutSnapshot(s.hostID, name, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}
	return nil
}

func emptyTempFile(pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return path, nil
}
