package job

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// partialSuffixes mark files yt-dlp is still writing
var partialSuffixes = []string{".part"}

// LocateOutput walks dir for finished regular files and returns the most
// recently modified one. ok is false when there is none.
func LocateOutput(dir string) (path string, ok bool, err error) {
	var newest time.Time

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() || isPartial(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !ok || info.ModTime().After(newest) {
			path, newest, ok = p, info.ModTime(), true
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return path, ok, nil
}

func isPartial(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
