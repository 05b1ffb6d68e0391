package distribution

import (
	"context"
	"time"
)

// DriveClient is the port for publishing results to Google Drive
type DriveClient interface {
	// FindFileByName returns the file named fileName in folderID, or nil if absent
	FindFileByName(ctx context.Context, folderID, fileName string) (*FileInfo, error)

	// ListMediaFiles lists audio and video files in a folder, oldest first
	ListMediaFiles(ctx context.Context, folderID string) ([]FileInfo, error)

	// GetStorageQuota returns the current storage quota information
	GetStorageQuota(ctx context.Context) (*StorageInfo, error)

	// DeletePermanently deletes a file permanently (bypasses trash)
	DeletePermanently(ctx context.Context, fileID string) error

	// UploadAndShare uploads a file and makes it readable by anyone with the link
	UploadAndShare(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// FileInfo represents metadata about a file in Google Drive
type FileInfo struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	CreatedTime time.Time
}
