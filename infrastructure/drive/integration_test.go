//go:build manual

package drive

import (
	"context"
	"os"
	"testing"
)

// TestRealDriveConnectivity lists media in a real Drive folder.
// Run with:
//
//	MEDIA_PROCESSOR_DRIVE_CREDENTIALS=credentials.json MEDIA_PROCESSOR_DRIVE_FOLDER=<id> \
//	  go test -tags=manual -v ./infrastructure/drive/... -run TestRealDriveConnectivity
func TestRealDriveConnectivity(t *testing.T) {
	credentialsPath := os.Getenv("MEDIA_PROCESSOR_DRIVE_CREDENTIALS")
	folderID := os.Getenv("MEDIA_PROCESSOR_DRIVE_FOLDER")
	if credentialsPath == "" || folderID == "" {
		t.Skip("Drive credentials or folder not set - skipping real Drive test")
	}

	ctx := context.Background()

	client, err := NewClient(ctx, credentialsPath)
	if err != nil {
		t.Fatalf("Failed to create Drive client: %v", err)
	}

	quota, err := client.GetStorageQuota(ctx)
	if err != nil {
		t.Fatalf("Failed to read quota: %v", err)
	}
	t.Logf("Storage: %d of %d bytes used", quota.UsedBytes, quota.TotalBytes)

	files, err := client.ListMediaFiles(ctx, folderID)
	if err != nil {
		t.Fatalf("Failed to list files: %v", err)
	}

	t.Logf("Found %d media files:", len(files))
	for _, f := range files {
		t.Logf("  - %s (%s, %.2f MB)", f.Name, f.MimeType, float64(f.Size)/1024/1024)
	}
}
