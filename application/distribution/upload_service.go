package distribution

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"media-processor/domain/distribution"
)

// UploadService publishes pipeline outputs to a Google Drive folder
type UploadService struct {
	driveClient distribution.DriveClient
	cleanup     *CleanupService
	folderID    string
	prune       bool
	output      io.Writer
}

// UploadOption is a functional option for configuring UploadService
type UploadOption func(*UploadService)

// WithPruning deletes the oldest media in the folder when the quota is full
func WithPruning(prune bool) UploadOption {
	return func(s *UploadService) {
		s.prune = prune
	}
}

// NewUploadService creates a new upload service
func NewUploadService(client distribution.DriveClient, folderID string, output io.Writer, opts ...UploadOption) *UploadService {
	if output == nil {
		output = io.Discard
	}
	s := &UploadService{
		driveClient: client,
		cleanup:     NewCleanupService(client, folderID),
		folderID:    folderID,
		output:      output,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload uploads one file, replacing a file of the same name, and shares it
func (s *UploadService) Upload(ctx context.Context, filePath string) (*distribution.UploadResult, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a file: %s", filePath)
	}

	fileName := filepath.Base(filePath)

	// Check for existing file with same name and delete if found
	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}
	if existing != nil {
		fmt.Fprintf(s.output, "      Replacing existing %s (%.1f MB)\n", existing.Name, float64(existing.Size)/1024/1024)
		if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	if err := s.ensureSpace(ctx, info.Size(), fileName); err != nil {
		return nil, err
	}

	req := distribution.UploadRequest{
		LocalPath: filePath,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  distribution.MimeTypeFor(filePath),
	}

	result, err := s.driveClient.UploadAndShare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	fmt.Fprintf(s.output, "      Uploaded %s: %s\n", result.FileName, result.ShareableURL)
	return result, nil
}

// UploadAll uploads every path in order and stops at the first failure
func (s *UploadService) UploadAll(ctx context.Context, paths ...string) ([]distribution.UploadResult, error) {
	results := make([]distribution.UploadResult, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		r, err := s.Upload(ctx, p)
		if err != nil {
			return results, err
		}
		results = append(results, *r)
	}
	return results, nil
}

func (s *UploadService) ensureSpace(ctx context.Context, size int64, fileName string) error {
	storage, err := s.driveClient.GetStorageQuota(ctx)
	if err != nil {
		return fmt.Errorf("failed to check storage: %w", err)
	}
	if storage.HasSpaceFor(size) {
		return nil
	}
	if !s.prune {
		return fmt.Errorf("insufficient Drive space for %s: need %d bytes, %d available", fileName, size, storage.AvailableBytes)
	}

	result, err := s.cleanup.EnsureSpaceAvailable(ctx, size, fileName)
	for _, f := range result.DeletedFiles {
		fmt.Fprintf(s.output, "      Pruned %s (%.1f MB)\n", f.Name, float64(f.Size)/1024/1024)
	}
	return err
}
