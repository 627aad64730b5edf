package store

import (
	"io"

	"go.uber.org/zap"

	"github.com/sergey-melnychuk/yalskv/internal/index"
	"github.com/sergey-melnychuk/yalskv/internal/logfile"
)

// recovered is the outcome of scanning and replaying baseDir's log files on
// Open (spec.md §9 O1, SPEC_FULL.md §1.1): the FileId to treat as active and
// the index entries reconstructed by replaying every discovered file in
// FileId order.
type recovered struct {
	activeFileID uint64
	entries      map[string]index.Entry
}

// recover scans baseDir for existing log files and replays them sequentially
// to reconstruct the index a crashed-and-restarted process would otherwise
// have lost. Files are replayed in ascending FileId order, so a later
// file's records correctly supersede an earlier file's for the same key
// (data-model invariant I2's multi-file extension).
//
// When no log files exist yet, recovered.activeFileID is 1 and entries is
// empty: the bootstrap case.
func recover(baseDir string, maxKeyLen, maxValLen uint32, log *zap.SugaredLogger) (*recovered, error) {
	ids, err := discoverFileIDs(baseDir)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		log.Infow("no existing log files found, starting fresh", "activeFileId", uint64(1))
		return &recovered{activeFileID: 1, entries: make(map[string]index.Entry, 1024)}, nil
	}

	entries := make(map[string]index.Entry, 1024)
	for _, id := range ids {
		path := FilePath(baseDir, id)
		log.Infow("replaying log file", "fileId", id, "path", path)

		f, err := logfile.Open(id, path, maxKeyLen, maxValLen)
		if err != nil {
			return nil, err
		}

		if err := replayInto(f, id, entries); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}

	activeFileID := ids[len(ids)-1]
	log.Infow("recovery complete", "activeFileId", activeFileID, "recoveredKeys", len(entries))
	return &recovered{activeFileID: activeFileID, entries: entries}, nil
}

// replayInto reads every record in f sequentially and applies it to
// entries: an Insert sets/overwrites the key, a Remove deletes it.
func replayInto(f *logfile.File, fileID uint64, entries map[string]index.Entry) error {
	f.Reset()
	for {
		offsetBefore := f.AppendOffset()
		rec, err := f.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		key := string(rec.Key)
		if rec.IsInsert() {
			entries[key] = index.Entry{
				FileID:      fileID,
				ValueOffset: logfile.ValueOffset(offsetBefore, uint32(len(rec.Key))),
				ValueLen:    uint32(len(rec.Val)),
			}
		} else {
			delete(entries, key)
		}
	}
	return nil
}
