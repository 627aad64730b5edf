package reduce

import (
	"bytes"
	"io"

	"github.com/sergey-melnychuk/yalskv/internal/index"
	"github.com/sergey-melnychuk/yalskv/internal/logfile"
)

// chunkCursor tracks one chunk's peeked-but-not-consumed record during the
// k-way merge below.
type chunkCursor struct {
	file      *logfile.File
	peeked    *logfile.Record
	exhausted bool
}

func (c *chunkCursor) peek() (*logfile.Record, error) {
	if c.exhausted {
		return nil, nil
	}
	if c.peeked != nil {
		return c.peeked, nil
	}
	rec, err := c.file.PeekNext()
	if err == io.EOF {
		c.exhausted = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.peeked = &rec
	return c.peeked, nil
}

// merge performs the k-way merge of chunks (each already sorted and reset
// for reading) into a fresh log file at tmpPath, collapsing duplicate keys
// so only the most recent value per key survives and tombstoned keys are
// dropped (spec.md §4.4 step 3's duplicate collapser).
func merge(chunks []*logfile.File, activeID uint64, tmpPath string, maxKeyLen, maxValLen uint32) (map[string]index.Entry, error) {
	dst, err := logfile.Open(activeID, tmpPath, maxKeyLen, maxValLen)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	cursors := make([]*chunkCursor, len(chunks))
	for i, c := range chunks {
		cursors[i] = &chunkCursor{file: c}
	}

	entries := make(map[string]index.Entry, 1024)
	emit := func(key, val []byte) error {
		fileID, valOff, valLen, err := dst.AppendInsert(key, val)
		if err != nil {
			return err
		}
		entries[string(key)] = index.Entry{FileID: fileID, ValueOffset: valOff, ValueLen: valLen}
		return nil
	}

	var currentKey []byte
	var currentVal []byte
	hasVal := false

	for {
		bestIdx := -1
		var bestKey []byte
		for i, c := range cursors {
			peeked, err := c.peek()
			if err != nil {
				return nil, err
			}
			if peeked == nil {
				continue
			}
			if bestIdx == -1 || bytes.Compare(peeked.Key, bestKey) < 0 {
				bestIdx = i
				bestKey = peeked.Key
			}
		}
		if bestIdx == -1 {
			break
		}

		rec, err := cursors[bestIdx].file.ReadNext()
		if err != nil {
			return nil, err
		}
		cursors[bestIdx].peeked = nil

		if currentKey == nil {
			currentKey = rec.Key
		} else if !bytes.Equal(rec.Key, currentKey) {
			if hasVal {
				if err := emit(currentKey, currentVal); err != nil {
					return nil, err
				}
			}
			currentKey = rec.Key
			hasVal = false
		}

		if rec.IsInsert() {
			currentVal = rec.Val
			hasVal = true
		} else {
			hasVal = false
		}
	}

	if hasVal {
		if err := emit(currentKey, currentVal); err != nil {
			return nil, err
		}
	}

	return entries, nil
}
