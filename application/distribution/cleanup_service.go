package distribution

import (
	"context"
	"fmt"

	"media-processor/domain/distribution"
)

// CleanupService frees Drive space by pruning old media from the output folder
type CleanupService struct {
	driveClient distribution.DriveClient
	folderID    string
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(client distribution.DriveClient, folderID string) *CleanupService {
	return &CleanupService{
		driveClient: client,
		folderID:    folderID,
	}
}

// EnsureSpaceAvailable deletes the oldest media files in the folder until
// neededBytes fit. Files named in keep are never deleted.
func (s *CleanupService) EnsureSpaceAvailable(ctx context.Context, neededBytes int64, keep ...string) (*distribution.CleanupResult, error) {
	result := &distribution.CleanupResult{}
	protected := make(map[string]bool, len(keep))
	for _, name := range keep {
		protected[name] = true
	}

	for {
		storage, err := s.driveClient.GetStorageQuota(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to check storage: %w", err)
		}

		if storage.HasSpaceFor(neededBytes) {
			return result, nil
		}

		files, err := s.driveClient.ListMediaFiles(ctx, s.folderID)
		if err != nil {
			return result, fmt.Errorf("failed to list files: %w", err)
		}

		var oldest *distribution.FileInfo
		for i := range files {
			if !protected[files[i].Name] {
				oldest = &files[i]
				break
			}
		}
		if oldest == nil {
			return result, fmt.Errorf("no media files to delete, need %d bytes but only %d available",
				neededBytes, storage.AvailableBytes)
		}

		if err := s.driveClient.DeletePermanently(ctx, oldest.ID); err != nil {
			return result, fmt.Errorf("failed to delete %s: %w", oldest.Name, err)
		}

		result.DeletedFiles = append(result.DeletedFiles, *oldest)
		result.FreedBytes += oldest.Size
	}
}
