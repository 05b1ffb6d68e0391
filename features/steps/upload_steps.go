//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-processor/cmd"
	"media-processor/infrastructure/drive"

	googledrive "google.golang.org/api/drive/v3"

	"github.com/cucumber/godog"
)

// uploadMockDriveService is an in-memory Drive folder
type uploadMockDriveService struct {
	files          []*googledrive.File
	permissions    map[string]*googledrive.Permission
	permissionFail bool
	storageLimit   int64
	storageUsage   int64
	deletedFileIDs []string
	nextFileID     int
}

func newUploadMockDriveService() *uploadMockDriveService {
	return &uploadMockDriveService{
		permissions: make(map[string]*googledrive.Permission),
		nextFileID:  1,
	}
}

func (m *uploadMockDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*googledrive.File, error) {
	// Filter files by name if query contains "name = " (for FindFileByName support)
	if start := strings.Index(query, "name = '"); start >= 0 {
		start += len("name = '")
		end := strings.Index(query[start:], "'") + start
		var result []*googledrive.File
		for _, f := range m.files {
			if f.Name == query[start:end] {
				result = append(result, f)
			}
		}
		return result, nil
	}
	return m.files, nil
}

func (m *uploadMockDriveService) GetAbout(ctx context.Context, fields string) (*googledrive.About, error) {
	return &googledrive.About{
		StorageQuota: &googledrive.AboutStorageQuota{
			Limit: m.storageLimit,
			Usage: m.storageUsage,
		},
	}, nil
}

func (m *uploadMockDriveService) DeleteFile(ctx context.Context, fileID string) error {
	m.deletedFileIDs = append(m.deletedFileIDs, fileID)
	kept := m.files[:0]
	for _, f := range m.files {
		if f.Id == fileID {
			m.storageUsage -= f.Size
			continue
		}
		kept = append(kept, f)
	}
	m.files = kept
	return nil
}

func (m *uploadMockDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*googledrive.File, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}

	fileID := fmt.Sprintf("uploaded-file-%d", m.nextFileID)
	m.nextFileID++

	file := &googledrive.File{
		Id:          fileID,
		Name:        fileName,
		MimeType:    mimeType,
		Size:        info.Size(),
		WebViewLink: fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID),
	}
	m.files = append(m.files, file)
	m.storageUsage += info.Size()
	return file, nil
}

func (m *uploadMockDriveService) CreatePermission(ctx context.Context, fileID string, permission *googledrive.Permission) error {
	if m.permissionFail {
		return fmt.Errorf("permission API error: unable to set sharing permission")
	}
	m.permissions[fileID] = permission
	return nil
}

type uploadContext struct {
	tempDir     string
	folderID    string
	mockService *uploadMockDriveService
	prune       bool
	output      bytes.Buffer
	err         error
}

// SharedUploadContext is reset before each scenario via Before hook
var SharedUploadContext = &uploadContext{}

func InitializeUploadScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedUploadContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "upload-test-*")
		if err != nil {
			return c, err
		}
		*testCtx = uploadContext{
			tempDir:     tempDir,
			mockService: newUploadMockDriveService(),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^the Drive output folder is "([^"]*)"$`, testCtx.theDriveOutputFolderIs)
	ctx.Step(`^the Drive has (\d+) bytes of storage with (\d+) used$`, testCtx.theDriveHasBytesOfStorage)
	ctx.Step(`^the folder already contains "([^"]*)" of (\d+) bytes created at "([^"]*)"$`, testCtx.theFolderAlreadyContains)
	ctx.Step(`^the permission API will fail$`, testCtx.thePermissionAPIWillFail)
	ctx.Step(`^pruning is enabled$`, testCtx.pruningIsEnabled)
	ctx.Step(`^a local file "([^"]*)" of (\d+) bytes$`, testCtx.aLocalFileOfBytes)
	ctx.Step(`^I upload "([^"]*)"$`, testCtx.iUpload)
	ctx.Step(`^the upload should succeed$`, testCtx.theUploadShouldSucceed)
	ctx.Step(`^the upload should fail with "([^"]*)"$`, testCtx.theUploadShouldFailWith)
	ctx.Step(`^"([^"]*)" should be shared with anyone as reader$`, testCtx.shouldBeSharedWithAnyoneAsReader)
	ctx.Step(`^the Drive file "([^"]*)" should have been deleted$`, testCtx.theDriveFileShouldHaveBeenDeleted)
	ctx.Step(`^no Drive file should have been deleted$`, testCtx.noDriveFileShouldHaveBeenDeleted)
	ctx.Step(`^the upload output should contain "([^"]*)"$`, testCtx.theUploadOutputShouldContain)
}

func (u *uploadContext) theDriveOutputFolderIs(folderID string) error {
	u.folderID = folderID
	return nil
}

func (u *uploadContext) theDriveHasBytesOfStorage(limit, usage int64) error {
	u.mockService.storageLimit = limit
	u.mockService.storageUsage = usage
	return nil
}

func (u *uploadContext) theFolderAlreadyContains(name string, size int64, created string) error {
	u.mockService.files = append(u.mockService.files, &googledrive.File{
		Id:          "existing-" + name,
		Name:        name,
		MimeType:    "audio/wav",
		Size:        size,
		CreatedTime: created,
	})
	return nil
}

func (u *uploadContext) thePermissionAPIWillFail() error {
	u.mockService.permissionFail = true
	return nil
}

func (u *uploadContext) pruningIsEnabled() error {
	u.prune = true
	return nil
}

func (u *uploadContext) aLocalFileOfBytes(name string, size int) error {
	return os.WriteFile(filepath.Join(u.tempDir, name), bytes.Repeat([]byte{0}, size), 0o644)
}

func (u *uploadContext) iUpload(name string) error {
	client, err := drive.NewClient(context.Background(), "", drive.WithDriveService(u.mockService))
	if err != nil {
		return err
	}
	paths := []string{filepath.Join(u.tempDir, name)}
	u.err = cmd.RunUploadWithDependencies(context.Background(), client, u.folderID, paths, u.prune, &u.output)
	return nil
}

func (u *uploadContext) theUploadShouldSucceed() error {
	if u.err != nil {
		return fmt.Errorf("expected upload to succeed, got: %w", u.err)
	}
	return nil
}

func (u *uploadContext) theUploadShouldFailWith(text string) error {
	if u.err == nil {
		return fmt.Errorf("expected upload to fail")
	}
	if !strings.Contains(u.err.Error(), text) {
		return fmt.Errorf("expected error containing %q, got: %v", text, u.err)
	}
	return nil
}

func (u *uploadContext) shouldBeSharedWithAnyoneAsReader(name string) error {
	for _, f := range u.mockService.files {
		if f.Name != name || strings.HasPrefix(f.Id, "existing-") {
			continue
		}
		perm, ok := u.mockService.permissions[f.Id]
		if !ok {
			return fmt.Errorf("%s has no permission", name)
		}
		if perm.Type != "anyone" || perm.Role != "reader" {
			return fmt.Errorf("%s shared as %s/%s", name, perm.Type, perm.Role)
		}
		return nil
	}
	return fmt.Errorf("%s was not uploaded", name)
}

func (u *uploadContext) theDriveFileShouldHaveBeenDeleted(name string) error {
	for _, id := range u.mockService.deletedFileIDs {
		if id == "existing-"+name {
			return nil
		}
	}
	return fmt.Errorf("%s was not deleted, deleted: %v", name, u.mockService.deletedFileIDs)
}

func (u *uploadContext) noDriveFileShouldHaveBeenDeleted() error {
	if len(u.mockService.deletedFileIDs) > 0 {
		return fmt.Errorf("expected no deletions, got %v", u.mockService.deletedFileIDs)
	}
	return nil
}

func (u *uploadContext) theUploadOutputShouldContain(text string) error {
	if !strings.Contains(u.output.String(), text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, u.output.String())
	}
	return nil
}
