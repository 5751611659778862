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
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

const block1 = "check at: 1.2.2020 10:00:00\nFoo -> 2 new messages\n----\n"
const block2 = "Bar -> 1 new messages\n----\n"

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "connector.log")
	err := os.WriteFile(fileName, []byte(content), 0644)
	if err != nil {
		t.Fatalf("got error when writing temp file: %v", err)
	}
	return fileName
}

func readAll(t *testing.T, fileName string, offset int64) ([]string, int64) {
	t.Helper()
	seg, err := NewSegmenter(fileName, offset, zap.NewNop())
	if err != nil {
		t.Fatalf("got error when creating Segmenter: %v", err)
	}
	defer seg.Close()
	entries := []string{}
	for seg.Scan() {
		entries = append(entries, seg.Entry())
	}
	if err := seg.Err(); err != nil {
		t.Fatalf("got error when segmenting: %v", err)
	}
	return entries, seg.Offset()
}

func TestSegmenterTwoBlocks(t *testing.T) {
	fileName := writeTempFile(t, block1+block2)

	entries, offset := readAll(t, fileName, 0)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries but got %v", len(entries))
	}
	if entries[0] != "check at: 1.2.2020 10:00:00\nFoo -> 2 new messages" {
		t.Errorf("got unexpected first entry: %q", entries[0])
	}
	if entries[1] != "Bar -> 1 new messages" {
		t.Errorf("got unexpected second entry: %q", entries[1])
	}
	// The offset must point just past the second block's content line,
	// excluding the trailing delimiter.
	expectedOffset := int64(len(block1) + len("Bar -> 1 new messages\n"))
	if offset != expectedOffset {
		t.Errorf("expected offset %v but got %v", expectedOffset, offset)
	}
}

func TestSegmenterConsecutiveDelimitersAreCollapsed(t *testing.T) {
	fileName := writeTempFile(t, "----\n----\n"+block1+"----\n----\n"+block2)

	entries, _ := readAll(t, fileName, 0)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries but got %v", len(entries))
	}
}

func TestSegmenterDiscardsUnterminatedTail(t *testing.T) {
	fileName := writeTempFile(t, block1+"entry still being written\n")

	entries, offset := readAll(t, fileName, 0)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry but got %v", len(entries))
	}
	expectedOffset := int64(len(block1) - len("----\n"))
	if offset != expectedOffset {
		t.Errorf("expected offset %v (before the unterminated tail) but got %v", expectedOffset, offset)
	}

	// Once the delimiter shows up, the next run picks the tail up from the
	// committed offset.
	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("got error when reopening temp file: %v", err)
	}
	if _, err := f.WriteString("----\n"); err != nil {
		t.Fatalf("got error when appending to temp file: %v", err)
	}
	f.Close()

	entries, _ = readAll(t, fileName, offset)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after the delimiter was written but got %v", len(entries))
	}
	if entries[0] != "entry still being written" {
		t.Errorf("got unexpected entry after resumption: %q", entries[0])
	}
}

func TestSegmenterResumptionAtAnyCheckpoint(t *testing.T) {
	content := block1 + block2 + "check at: 2.2.2020 11:00:00\nBaz -> 4 new messages\n-----\n"
	fileName := writeTempFile(t, content)

	fullEntries, finalOffset := readAll(t, fileName, 0)
	if len(fullEntries) != 3 {
		t.Fatalf("expected 3 entries but got %v", len(fullEntries))
	}

	// Collect the checkpoint after each produced entry.
	seg, err := NewSegmenter(fileName, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("got error when creating Segmenter: %v", err)
	}
	checkpoints := []int64{}
	for seg.Scan() {
		checkpoints = append(checkpoints, seg.Offset())
	}
	seg.Close()

	for i, k := range checkpoints {
		head, _ := readAll(t, fileName, 0)
		tail, tailOffset := readAll(t, fileName, k)
		combined := append(head[:i+1:i+1], tail...)
		if len(combined) != len(fullEntries) {
			t.Fatalf("split at offset=%v: expected %v entries but got %v", k, len(fullEntries), len(combined))
		}
		for j := range combined {
			if combined[j] != fullEntries[j] {
				t.Errorf("split at offset=%v: entry %v differs: %q != %q", k, j, combined[j], fullEntries[j])
			}
		}
		if i == len(checkpoints)-1 && tailOffset != finalOffset {
			t.Errorf("split at offset=%v: expected final offset %v but got %v", k, finalOffset, tailOffset)
		}
	}
}

func TestSegmenterOffsetBeyondFileSizeFallsBackToZero(t *testing.T) {
	fileName := writeTempFile(t, block1)

	entries, _ := readAll(t, fileName, int64(len(block1))+100)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after falling back to offset 0 but got %v", len(entries))
	}
}

func TestSegmenterEmptyFile(t *testing.T) {
	fileName := writeTempFile(t, "")

	entries, offset := readAll(t, fileName, 0)

	if len(entries) != 0 {
		t.Fatalf("expected 0 entries but got %v", len(entries))
	}
	if offset != 0 {
		t.Errorf("expected offset 0 but got %v", offset)
	}
}

func TestSegmenterUnchangedFileFromFinalOffset(t *testing.T) {
	fileName := writeTempFile(t, block1+block2)

	_, offset := readAll(t, fileName, 0)
	entries, newOffset := readAll(t, fileName, offset)

	if len(entries) != 0 {
		t.Fatalf("expected 0 entries on second run but got %v", len(entries))
	}
	if newOffset != offset {
		t.Errorf("expected offset to stay at %v but got %v", offset, newOffset)
	}
}

func TestIsDelimiter(t *testing.T) {
	cases := []struct {
		line     string
		expected bool
	}{
		{"----\n", true},
		{"----------\n", true},
		{"---\r\n", true},
		{"---\n", false},
		{"--\r\n", false},
		{"--\n", false},
		{"--", false},
		{"-\n", false},
		{"", false},
		{"check at: 1.2.2020 10:00:00\n", false},
		{"---x-\n", false},
		{"A -> 2 new messages\n", false},
	}
	for _, c := range cases {
		if got := isDelimiter(c.line); got != c.expected {
			t.Errorf("isDelimiter(%q) = %v, expected %v", c.line, got, c.expected)
		}
	}
}
