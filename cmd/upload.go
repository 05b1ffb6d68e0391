package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	appdist "media-processor/application/distribution"
	"media-processor/domain/distribution"
	"media-processor/infrastructure/drive"

	"github.com/spf13/cobra"
)

var (
	uploadFolderID string
	uploadPrune    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload files to Google Drive with public sharing",
	Long: `Upload isolated audio or muxed video files to Google Drive and set public sharing.

Files go to the configured google.output_folder_id unless --folder is given.
A file with the same name in the folder is replaced. The files are made
publicly accessible with "anyone with the link" permission.

Example:
  media-processor upload out/vocals.wav
  media-processor upload --prune out/vocals.wav out/service-vocals.mp4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFolderID, "folder", "", "Google Drive folder ID (default from config)")
	uploadCmd.Flags().BoolVar(&uploadPrune, "prune", false, "Delete the oldest media in the folder when Drive is full")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	folderID := uploadFolderID
	if folderID == "" {
		folderID = cfg.Google.OutputFolderID
	}
	if folderID == "" {
		return fmt.Errorf("no Drive folder: set google.output_folder_id or pass --folder")
	}

	ctx := cmd.Context()
	client, err := drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	return RunUploadWithDependencies(ctx, client, folderID, args, uploadPrune, os.Stdout)
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	driveClient distribution.DriveClient,
	folderID string,
	paths []string,
	prune bool,
	output OutputWriter,
) error {
	service := appdist.NewUploadService(driveClient, folderID, output, appdist.WithPruning(prune))

	for _, p := range paths {
		fmt.Fprintf(output, "Uploading %s...\n", filepath.Base(p))
		result, err := service.Upload(ctx, p)
		if err != nil {
			return fmt.Errorf("upload of %s failed: %w", p, err)
		}
		fmt.Fprintf(output, "  File ID: %s\n", result.FileID)
		fmt.Fprintf(output, "  Size: %.2f MB\n", float64(result.Size)/1024/1024)
		fmt.Fprintf(output, "  Shareable URL: %s\n", result.ShareableURL)
		fmt.Fprintln(output)
	}

	fmt.Fprintf(output, "Upload complete!\n")
	return nil
}
