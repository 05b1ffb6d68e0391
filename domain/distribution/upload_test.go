package distribution

import "testing"

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/out/vocals.wav", want: MimeTypeWAV},
		{path: "vocals.WAV", want: MimeTypeWAV},
		{path: "service.mp4", want: MimeTypeMP4},
		{path: "service.mkv", want: MimeTypeMKV},
		{path: "vocals.opus", want: MimeTypeOgg},
		{path: "notes.txt", want: MimeTypeBin},
		{path: "noext", want: MimeTypeBin},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := MimeTypeFor(tt.path); got != tt.want {
				t.Errorf("MimeTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsMedia(t *testing.T) {
	if !IsMedia(MimeTypeWAV) || !IsMedia(MimeTypeMP4) {
		t.Error("audio and video types should be media")
	}
	if IsMedia(MimeTypeBin) || IsMedia("application/vnd.google-apps.folder") {
		t.Error("non-media types should not be media")
	}
}

func TestStorageInfo_HasSpaceFor(t *testing.T) {
	tests := []struct {
		name    string
		storage StorageInfo
		bytes   int64
		want    bool
	}{
		{name: "enough", storage: StorageInfo{TotalBytes: 100, UsedBytes: 40, AvailableBytes: 60}, bytes: 60, want: true},
		{name: "too little", storage: StorageInfo{TotalBytes: 100, UsedBytes: 90, AvailableBytes: 10}, bytes: 11, want: false},
		{name: "unlimited", storage: StorageInfo{UsedBytes: 1 << 40}, bytes: 1 << 30, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.storage.HasSpaceFor(tt.bytes); got != tt.want {
				t.Errorf("HasSpaceFor(%d) = %v, want %v", tt.bytes, got, tt.want)
			}
		})
	}
}
