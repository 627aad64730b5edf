package reduce

import (
	"bytes"
	"io"
	"path/filepath"
	"sort"

	"github.com/sergey-melnychuk/yalskv/internal/logfile"
)

// split resets active for sequential iteration and buffers its records into
// runs of at most limit bytes (a single record larger than limit forms a
// run of its own), sorting each run by key (stably, so repeated
// keys within a run keep their original arrival order) before spilling it
// to its own file in scratchDir. Each spilled chunk file is left reset for
// subsequent iteration by merge.
func split(active *logfile.File, scratchDir string, limit int64, maxKeyLen, maxValLen uint32) ([]*logfile.File, error) {
	active.Reset()

	var chunks []*logfile.File
	var buffer []logfile.Record
	var bufferedBytes int64
	chunkIdx := 0

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		sort.SliceStable(buffer, func(i, j int) bool {
			return bytes.Compare(buffer[i].Key, buffer[j].Key) < 0
		})

		path := filepath.Join(scratchDir, fileName(uint64(chunkIdx))+".dat")
		chunk, err := logfile.Open(uint64(chunkIdx), path, maxKeyLen, maxValLen)
		if err != nil {
			return err
		}
		for _, rec := range buffer {
			if rec.IsInsert() {
				if _, _, _, err := chunk.AppendInsert(rec.Key, rec.Val); err != nil {
					_ = chunk.Close()
					return err
				}
			} else {
				if err := chunk.AppendRemove(rec.Key); err != nil {
					_ = chunk.Close()
					return err
				}
			}
		}
		chunk.Reset()

		chunks = append(chunks, chunk)
		chunkIdx++
		buffer = buffer[:0]
		bufferedBytes = 0
		return nil
	}

	for {
		rec, err := active.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if bufferedBytes > 0 && bufferedBytes+rec.EncodedLen() > limit {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		buffer = append(buffer, rec)
		bufferedBytes += rec.EncodedLen()
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return chunks, nil
}
