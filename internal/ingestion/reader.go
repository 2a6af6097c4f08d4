package ingestion

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// RangeReader reads a byte range from a file and splits it into complete
// lines, leaving any trailing partial line (bytes after the last LF)
// unconsumed. It is stateless across calls: the Tailer is the sole owner
// of the offset a caller passes in, per spec.md §4.4/§9.
type RangeReader struct {
	path    string
	decoder *encoding.Decoder
}

// NewRangeReader builds a reader for path that decodes completed lines
// according to source.encoding (an IANA charset name such as "UTF-8" or
// "ISO-8859-1"), per spec.md §4.4 step 4. An empty name or "utf-8"
// skips transcoding; a name ianaindex doesn't recognize falls back to
// lossy UTF-8 validation rather than failing the whole source.
func NewRangeReader(path, encodingName string) *RangeReader {
	return &RangeReader{path: path, decoder: resolveDecoder(encodingName)}
}

func resolveDecoder(name string) *encoding.Decoder {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil
	}
	return enc.NewDecoder()
}

// ReadResult is what one tick's read of one file produces.
type ReadResult struct {
	// Lines are complete, LF-terminated lines decoded from [offset, newOffset).
	Lines []string
	// NewOffset is the byte position immediately after the last LF found;
	// bytes beyond this (the trailing partial line, if any) were not consumed.
	NewOffset int64
	// Reset is true when the file shrank below offset and reading restarted
	// from 0 (spec.md §4.4 step 3, the rotation/truncation heuristic).
	Reset bool
}

// Read reads the range [offset, currentSize) of the file, splits it on
// LF, and decodes each complete line using the configured encoding
// (falling back to lossy UTF-8 replacement for invalid byte sequences,
// per spec.md §3). If the file is shorter than offset it is treated as
// rotated or truncated: the read restarts from 0.
func (r *RangeReader) Read(offset int64) (ReadResult, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return ReadResult{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return ReadResult{}, fmt.Errorf("stat %s: %w", r.path, err)
	}

	reset := false
	size := stat.Size()
	if size < offset {
		offset = 0
		reset = true
	}

	if size == offset {
		return ReadResult{NewOffset: offset, Reset: reset}, nil
	}

	buf := make([]byte, size-offset)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return ReadResult{}, fmt.Errorf("read %s at %d: %w", r.path, offset, err)
	}

	// Find the last LF against the raw bytes first: ToValidUTF8 replaces
	// invalid byte runs with a multi-byte U+FFFD sequence and is not
	// length-preserving, so running it before locating the LF would make
	// the LF's position in the decoded string disagree with its true byte
	// offset in the file, drifting the persisted offset on any line
	// containing invalid UTF-8.
	lastLF := bytes.LastIndexByte(buf, '\n')
	if lastLF == -1 {
		// No complete line in this range yet; nothing to consume.
		return ReadResult{NewOffset: offset, Reset: reset}, nil
	}

	complete := buf[:lastLF]
	var lines []string
	for _, raw := range bytes.Split(complete, []byte("\n")) {
		raw = bytes.TrimSuffix(raw, []byte("\r"))
		lines = append(lines, r.decodeLine(raw))
	}

	return ReadResult{
		Lines:     lines,
		NewOffset: offset + int64(lastLF) + 1,
		Reset:     reset,
	}, nil
}

// decodeLine transcodes one line's raw bytes to UTF-8 using the
// source's configured encoding, falling back to lossy UTF-8 validation
// when no decoder is configured or the decoder rejects the bytes.
func (r *RangeReader) decodeLine(raw []byte) string {
	if r.decoder != nil {
		r.decoder.Reset()
		if decoded, err := r.decoder.Bytes(raw); err == nil {
			return string(decoded)
		}
	}
	return strings.ToValidUTF8(string(raw), "�")
}
