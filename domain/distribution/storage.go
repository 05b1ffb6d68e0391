package distribution

// StorageInfo represents Google Drive storage quota information.
// TotalBytes is zero for accounts without a limit.
type StorageInfo struct {
	TotalBytes     int64
	UsedBytes      int64
	AvailableBytes int64
}

// HasSpaceFor returns true if there's enough space for the given bytes
func (s StorageInfo) HasSpaceFor(bytes int64) bool {
	if s.TotalBytes == 0 {
		return true
	}
	return s.AvailableBytes >= bytes
}

// CleanupResult lists the files pruned to make room for an upload
type CleanupResult struct {
	DeletedFiles []FileInfo
	FreedBytes   int64
}
