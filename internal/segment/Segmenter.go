// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package segment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Segmenter reads a connector log file from a byte offset and groups its lines
// into delimited entries. Usage follows bufio.Scanner:
//
//	seg, err := NewSegmenter(path, offset, logger)
//	for seg.Scan() {
//		entry := seg.Entry()
//	}
//	err = seg.Err()
//	newOffset := seg.Offset()
//
// The sequence is finite and non-restartable. The Segmenter reads at most up
// to the file size observed at open time, so an external process appending to
// the file during a read cannot expose a half-written tail - anything written
// later is picked up on the next run.
type Segmenter struct {
	file   *os.File
	reader *bufio.Reader
	logger *zap.Logger

	// pos is the file position after the last line read.
	pos int64
	// committed is the file position after the last content line of the last
	// produced entry. Trailing delimiter lines are intentionally excluded so
	// that a resumed run sees the delimiter again and closes the entry that
	// precedes it instead of losing it.
	committed int64
	// pending accumulates raw lines of the entry currently being assembled.
	pending []string
	// pendingEnd is the file position after the last line in pending.
	pendingEnd int64

	entry string
	err   error
	done  bool
}

// NewSegmenter opens filename for reading at the given byte offset. If the
// offset is beyond the current file size (the file was rotated or truncated
// since the offset was committed) the Segmenter falls back to reading from the
// start of the file.
func NewSegmenter(filename string, offset int64, logger *zap.Logger) (*Segmenter, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening log file fileName=%s: %w", filename, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error getting size of log file fileName=%s: %w", filename, err)
	}
	size := stat.Size()
	if offset > size {
		logger.Warn("ingestion offset is beyond the end of the log file, will restart from the beginning. this usually means the file was rotated or truncated",
			zap.String("fileName", filename),
			zap.Int64("offset", offset),
			zap.Int64("fileSize", size))
		offset = 0
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("error seeking to offset=%v in log file fileName=%s: %w", offset, filename, err)
		}
	}
	return &Segmenter{
		file:      f,
		reader:    bufio.NewReader(&io.LimitedReader{R: f, N: size - offset}),
		logger:    logger,
		pos:       offset,
		committed: offset,
		pending:   make([]string, 0, 16),
	}, nil
}

// Scan advances the Segmenter to the next entry. It returns false when the
// file is exhausted or an error occurred, in which case Err and Offset report
// the final state. Any lines accumulated at end of file without a closing
// delimiter belong to an entry that is still being written and are discarded;
// the offset does not advance past them so the next run re-reads them.
func (s *Segmenter) Scan() bool {
	if s.done {
		return false
	}
	for {
		line, err := s.reader.ReadString('\n')
		if len(line) > 0 {
			s.pos += int64(len(line))
			if isDelimiter(line) {
				if len(s.pending) > 0 {
					s.entry = strings.TrimSpace(strings.Join(s.pending, ""))
					s.pending = s.pending[:0]
					s.committed = s.pendingEnd
					return true
				}
				// Consecutive delimiters are collapsed.
			} else {
				s.pending = append(s.pending, line)
				s.pendingEnd = s.pos
			}
		}
		if err != nil {
			if err != io.EOF {
				s.err = fmt.Errorf("error reading log file fileName=%s: %w", s.file.Name(), err)
			}
			if len(s.pending) > 0 {
				s.logger.Debug("discarding unterminated entry at end of file, it will be re-read on the next run",
					zap.String("fileName", s.file.Name()),
					zap.Int("numLines", len(s.pending)))
				s.pending = s.pending[:0]
			}
			s.done = true
			return false
		}
	}
}

// Entry returns the entry produced by the most recent successful call to Scan.
// The entry is the whitespace-trimmed join of the block's lines.
func (s *Segmenter) Entry() string {
	return s.entry
}

// Err returns the first error encountered while reading, excluding io.EOF.
func (s *Segmenter) Err() error {
	return s.err
}

// Offset returns the byte position after the last fully consumed entry's
// trailing content line. It is the resumption checkpoint and only final once
// Scan has returned false.
func (s *Segmenter) Offset() int64 {
	return s.committed
}

func (s *Segmenter) Close() error {
	return s.file.Close()
}

// isDelimiter reports whether a raw line (terminator included) closes an
// entry. A delimiter consists only of dashes after its trailing two characters
// are stripped, and must keep more than two dashes after stripping so that
// short dash runs inside ordinary text are not mistaken for delimiters.
func isDelimiter(line string) bool {
	if len(line) < 2 {
		return false
	}
	stripped := line[:len(line)-2]
	if len(stripped) <= 2 {
		return false
	}
	for i := 0; i < len(stripped); i++ {
		if stripped[i] != '-' {
			return false
		}
	}
	return true
}
