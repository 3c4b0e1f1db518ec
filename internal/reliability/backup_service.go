package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/database"
)

const backupPrefix = "backups/"

// BackupService archives the SQLite databases into a tar.gz with a metadata
// manifest and uploads the archive to remote storage. Old remote archives are
// pruned down to a retention count.
type BackupService struct {
	s3        *S3Client
	databases []*database.DB
	dataDir   string
	retain    int
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(s3 *S3Client, databases []*database.DB, dataDir string, retain int, log zerolog.Logger) *BackupService {
	if retain <= 0 {
		retain = 14
	}
	return &BackupService{
		s3:        s3,
		databases: databases,
		dataDir:   dataDir,
		retain:    retain,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// BackupMetadata is the manifest stored inside each archive.
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes one database file in the archive.
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupAll checkpoints every database, archives the files, uploads the
// archive and prunes old remote backups.
func (s *BackupService) BackupAll(ctx context.Context) error {
	started := time.Now()
	s.log.Info().Msg("Starting backup")

	// Fold WAL contents into the main files so the copies are consistent.
	for _, db := range s.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			return fmt.Errorf("checkpoint before backup failed: %w", err)
		}
	}

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	archiveName := fmt.Sprintf("courtsight-%s.tar.gz", started.UTC().Format("20060102-150405"))
	archivePath := filepath.Join(stagingDir, archiveName)

	if err := s.createArchive(archivePath, started); err != nil {
		return err
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	if err := s.s3.Upload(ctx, backupPrefix+archiveName, file); err != nil {
		return err
	}

	if err := s.pruneOld(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to prune old backups")
	}

	s.log.Info().
		Str("archive", archiveName).
		Dur("duration", time.Since(started)).
		Msg("Backup complete")

	return nil
}

// ListBackups returns the remote backup archives, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]ObjectInfo, error) {
	return s.s3.List(ctx, backupPrefix)
}

func (s *BackupService) createArchive(archivePath string, timestamp time.Time) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	metadata := BackupMetadata{Timestamp: timestamp.UTC()}

	for _, db := range s.databases {
		fileMeta, err := addFileToArchive(tw, db.Path(), db.Name())
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", db.Name(), err)
		}
		metadata.Databases = append(metadata.Databases, *fileMeta)
	}

	manifest, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup metadata: %w", err)
	}

	header := &tar.Header{
		Name:    "metadata.json",
		Mode:    0644,
		Size:    int64(len(manifest)),
		ModTime: timestamp,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write metadata header: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

func addFileToArchive(tw *tar.Writer, path, name string) (*DatabaseMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	header := &tar.Header{
		Name:    filename,
		Mode:    0644,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return nil, err
	}

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tw, hash), file); err != nil {
		return nil, err
	}

	return &DatabaseMetadata{
		Name:      name,
		Filename:  filename,
		SizeBytes: info.Size(),
		Checksum:  hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func (s *BackupService) pruneOld(ctx context.Context) error {
	objects, err := s.s3.List(ctx, backupPrefix)
	if err != nil {
		return err
	}

	if len(objects) <= s.retain {
		return nil
	}

	for _, obj := range objects[s.retain:] {
		if !strings.HasSuffix(obj.Key, ".tar.gz") {
			continue
		}
		if err := s.s3.Delete(ctx, obj.Key); err != nil {
			return err
		}
		s.log.Info().Str("key", obj.Key).Msg("Pruned old backup")
	}

	return nil
}
