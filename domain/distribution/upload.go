package distribution

import (
	"path/filepath"
	"strings"
)

// UploadRequest contains the parameters needed to upload a file to Google Drive
type UploadRequest struct {
	LocalPath string // Full path to the local file
	FileName  string // Target filename in Google Drive
	FolderID  string // Target folder ID in Google Drive
	MimeType  string // MIME type of the file
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	FileID       string // Google Drive file ID
	FileName     string // Name of the uploaded file
	ShareableURL string // URL for sharing the file
	Size         int64  // Size of the uploaded file in bytes
}

// MIME types of the files the pipeline produces
const (
	MimeTypeWAV  = "audio/wav"
	MimeTypeMP3  = "audio/mpeg"
	MimeTypeFLAC = "audio/flac"
	MimeTypeOgg  = "audio/ogg"
	MimeTypeM4A  = "audio/mp4"
	MimeTypeMP4  = "video/mp4"
	MimeTypeMKV  = "video/x-matroska"
	MimeTypeWebM = "video/webm"
	MimeTypeMOV  = "video/quicktime"
	MimeTypeBin  = "application/octet-stream"
)

var mimeTypes = map[string]string{
	".wav":  MimeTypeWAV,
	".mp3":  MimeTypeMP3,
	".flac": MimeTypeFLAC,
	".ogg":  MimeTypeOgg,
	".opus": MimeTypeOgg,
	".m4a":  MimeTypeM4A,
	".aac":  MimeTypeM4A,
	".mp4":  MimeTypeMP4,
	".mkv":  MimeTypeMKV,
	".webm": MimeTypeWebM,
	".mov":  MimeTypeMOV,
}

// MimeTypeFor guesses the MIME type from the file extension
func MimeTypeFor(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return MimeTypeBin
}

// IsMedia reports whether mimeType is an audio or video type
func IsMedia(mimeType string) bool {
	return strings.HasPrefix(mimeType, "audio/") || strings.HasPrefix(mimeType, "video/")
}
