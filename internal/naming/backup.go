package naming

import (
	"path/filepath"
	"strings"
	"time"
)

// BackupTimeLayout is the timestamp format embedded in backup names.
const BackupTimeLayout = "20060102_150405"

// BackupName returns the timestamped backup name for filename:
// "shot_v003.ma" at 2025-03-14 09:26:53 becomes
// "shot_v003_backup_20250314_092653.ma". Backup names are independent of
// versioning; the token is left alone.
func BackupName(filename string, at time.Time) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return base + "_backup_" + at.Format(BackupTimeLayout) + ext
}
