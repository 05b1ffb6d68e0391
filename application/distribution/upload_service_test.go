package distribution

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-processor/domain/distribution"
)

// mockDriveClient implements distribution.DriveClient for testing
type mockDriveClient struct {
	files     []distribution.FileInfo // oldest first
	total     int64
	used      int64
	findErr   error
	quotaErr  error
	uploadErr error
	deleted   []string
	uploaded  []distribution.UploadRequest
}

func (m *mockDriveClient) FindFileByName(ctx context.Context, folderID, fileName string) (*distribution.FileInfo, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := range m.files {
		if m.files[i].Name == fileName {
			f := m.files[i]
			return &f, nil
		}
	}
	return nil, nil
}

func (m *mockDriveClient) ListMediaFiles(ctx context.Context, folderID string) ([]distribution.FileInfo, error) {
	return append([]distribution.FileInfo(nil), m.files...), nil
}

func (m *mockDriveClient) GetStorageQuota(ctx context.Context) (*distribution.StorageInfo, error) {
	if m.quotaErr != nil {
		return nil, m.quotaErr
	}
	return &distribution.StorageInfo{
		TotalBytes:     m.total,
		UsedBytes:      m.used,
		AvailableBytes: m.total - m.used,
	}, nil
}

func (m *mockDriveClient) DeletePermanently(ctx context.Context, fileID string) error {
	for i, f := range m.files {
		if f.ID == fileID {
			m.used -= f.Size
			m.files = append(m.files[:i], m.files[i+1:]...)
			m.deleted = append(m.deleted, fileID)
			return nil
		}
	}
	return errors.New("file not found")
}

func (m *mockDriveClient) UploadAndShare(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploaded = append(m.uploaded, req)
	return &distribution.UploadResult{
		FileID:       "new-" + req.FileName,
		FileName:     req.FileName,
		ShareableURL: "https://drive.google.com/file/d/new-" + req.FileName + "/view",
	}, nil
}

func localFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0}, size), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestUpload_Success(t *testing.T) {
	client := &mockDriveClient{total: 1000}
	var out bytes.Buffer
	svc := NewUploadService(client, "folder-1", &out)

	result, err := svc.Upload(context.Background(), localFile(t, "vocals.wav", 100))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.FileName != "vocals.wav" {
		t.Errorf("FileName = %q", result.FileName)
	}
	if len(client.uploaded) != 1 {
		t.Fatalf("uploaded %d files, want 1", len(client.uploaded))
	}
	req := client.uploaded[0]
	if req.FolderID != "folder-1" || req.MimeType != distribution.MimeTypeWAV {
		t.Errorf("unexpected request %+v", req)
	}
	if !strings.Contains(out.String(), "Uploaded vocals.wav") {
		t.Errorf("missing progress output: %q", out.String())
	}
}

func TestUpload_ReplacesExisting(t *testing.T) {
	client := &mockDriveClient{
		total: 1000,
		used:  200,
		files: []distribution.FileInfo{{ID: "old-1", Name: "vocals.wav", Size: 200}},
	}
	var out bytes.Buffer
	svc := NewUploadService(client, "folder-1", &out)

	if _, err := svc.Upload(context.Background(), localFile(t, "vocals.wav", 100)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "old-1" {
		t.Errorf("deleted = %v, want [old-1]", client.deleted)
	}
	if !strings.Contains(out.String(), "Replacing existing vocals.wav") {
		t.Errorf("missing replace notice: %q", out.String())
	}
}

func TestUpload_InsufficientSpace(t *testing.T) {
	client := &mockDriveClient{
		total: 1000,
		used:  950,
		files: []distribution.FileInfo{{ID: "a", Name: "2025-01-01.wav", Size: 950}},
	}
	svc := NewUploadService(client, "folder-1", nil)

	_, err := svc.Upload(context.Background(), localFile(t, "vocals.wav", 100))
	if err == nil || !strings.Contains(err.Error(), "insufficient Drive space") {
		t.Fatalf("expected space error, got %v", err)
	}
	if len(client.deleted) != 0 || len(client.uploaded) != 0 {
		t.Error("nothing should be deleted or uploaded without pruning")
	}
}

func TestUpload_PrunesOldestMedia(t *testing.T) {
	client := &mockDriveClient{
		total: 1000,
		used:  900,
		files: []distribution.FileInfo{
			{ID: "a", Name: "2025-01-01.wav", Size: 300},
			{ID: "b", Name: "2025-01-08.wav", Size: 300},
			{ID: "c", Name: "2025-01-15.wav", Size: 300},
		},
	}
	var out bytes.Buffer
	svc := NewUploadService(client, "folder-1", &out, WithPruning(true))

	if _, err := svc.Upload(context.Background(), localFile(t, "vocals.wav", 250)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "a" {
		t.Errorf("deleted = %v, want [a]", client.deleted)
	}
	if !strings.Contains(out.String(), "Pruned 2025-01-01.wav") {
		t.Errorf("missing prune notice: %q", out.String())
	}
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		client  *mockDriveClient
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing local file",
			client:  &mockDriveClient{total: 1000},
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.wav") },
			wantErr: "file does not exist",
		},
		{
			name:    "directory",
			client:  &mockDriveClient{total: 1000},
			path:    func(t *testing.T) string { return t.TempDir() },
			wantErr: "not a file",
		},
		{
			name:    "lookup failure",
			client:  &mockDriveClient{total: 1000, findErr: errors.New("googleapi: Error 403")},
			path:    func(t *testing.T) string { return localFile(t, "vocals.wav", 10) },
			wantErr: "failed to check for existing file",
		},
		{
			name:    "quota failure",
			client:  &mockDriveClient{quotaErr: errors.New("timeout")},
			path:    func(t *testing.T) string { return localFile(t, "vocals.wav", 10) },
			wantErr: "failed to check storage",
		},
		{
			name:    "upload failure",
			client:  &mockDriveClient{total: 1000, uploadErr: errors.New("connection reset")},
			path:    func(t *testing.T) string { return localFile(t, "vocals.wav", 10) },
			wantErr: "failed to upload and share vocals.wav",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUploadService(tt.client, "folder-1", nil)
			_, err := svc.Upload(context.Background(), tt.path(t))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUploadAll(t *testing.T) {
	client := &mockDriveClient{total: 1000}
	svc := NewUploadService(client, "folder-1", nil)

	results, err := svc.UploadAll(context.Background(),
		localFile(t, "vocals.wav", 10),
		"",
		localFile(t, "vocals.mp4", 10),
	)
	if err != nil {
		t.Fatalf("UploadAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if client.uploaded[1].MimeType != distribution.MimeTypeMP4 {
		t.Errorf("second upload MimeType = %q", client.uploaded[1].MimeType)
	}
}

func TestEnsureSpaceAvailable_KeepsProtectedFiles(t *testing.T) {
	client := &mockDriveClient{
		total: 100,
		used:  100,
		files: []distribution.FileInfo{{ID: "a", Name: "vocals.wav", Size: 100}},
	}
	svc := NewCleanupService(client, "folder-1")

	_, err := svc.EnsureSpaceAvailable(context.Background(), 50, "vocals.wav")
	if err == nil || !strings.Contains(err.Error(), "no media files to delete") {
		t.Errorf("expected no-files error, got %v", err)
	}
	if len(client.deleted) != 0 {
		t.Errorf("protected file was deleted: %v", client.deleted)
	}
}

func TestEnsureSpaceAvailable_FreesEnough(t *testing.T) {
	client := &mockDriveClient{
		total: 100,
		used:  90,
		files: []distribution.FileInfo{
			{ID: "a", Name: "a.wav", Size: 30},
			{ID: "b", Name: "b.wav", Size: 30},
			{ID: "c", Name: "c.wav", Size: 30},
		},
	}
	svc := NewCleanupService(client, "folder-1")

	result, err := svc.EnsureSpaceAvailable(context.Background(), 60)
	if err != nil {
		t.Fatalf("EnsureSpaceAvailable: %v", err)
	}
	if len(result.DeletedFiles) != 2 || result.FreedBytes != 60 {
		t.Errorf("deleted %d files freeing %d bytes, want 2 / 60", len(result.DeletedFiles), result.FreedBytes)
	}
}
