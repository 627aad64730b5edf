package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
)

const fileIDDigits = 20
const fileExt = ".dat"

// FormatFileName renders id as the store's fixed on-disk file name: a
// 20-digit zero-padded decimal FileId followed by ".dat" (spec.md §6).
func FormatFileName(id uint64) string {
	return formatPadded(id)
}

// FilePath joins baseDir with the formatted file name for id.
func FilePath(baseDir string, id uint64) string {
	return filepath.Join(baseDir, formatPadded(id))
}

func formatPadded(id uint64) string {
	s := strconv.FormatUint(id, 10)
	if len(s) < fileIDDigits {
		s = strings.Repeat("0", fileIDDigits-len(s)) + s
	}
	return s + fileExt
}

// parseFileID parses a base/<20-digit>.dat name back into its FileId.
// Names that don't match the store's fixed layout are ignored by the
// caller rather than treated as corruption: a base directory may contain
// scratch directories or unrelated files.
func parseFileID(name string) (uint64, bool) {
	if !strings.HasSuffix(name, fileExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(name, fileExt)
	if len(digits) != fileIDDigits {
		return 0, false
	}
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// discoverFileIDs scans baseDir for log files and returns their FileIds in
// ascending order (spec.md §9 O1: crash recovery by directory scan).
func discoverFileIDs(baseDir string) ([]uint64, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, yerrors.NewIOError(err, yerrors.ErrorCodeIO, "failed to scan base directory").
			WithPath(baseDir)
	}

	var ids []uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := parseFileID(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
