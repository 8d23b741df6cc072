// Package loader reads waveform envelope files off the owner goroutine and hands
// back validated waveform.Info values.
//
// Supported layouts:
//   - audiowaveform JSON (.json)
//   - audiowaveform binary (.dat), versions 1 and 2
//
// Either may be compressed; the outer extension picks the codec:
// .gz, .zst, .xz, .lz4 (e.g. "track.json.gz", "track.dat.zst").
package loader

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"wavescope/internal/waveform"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported waveform format")

	// ErrMalformed wraps decode failures that happen before record validation.
	ErrMalformed = errors.New("malformed waveform file")
)

// Format is the envelope layout inside a (possibly compressed) file.
type Format string

const (
	FormatJSON   Format = "json"
	FormatBinary Format = "dat"
)

// Result is the single completion delivered by LoadAsync.
type Result struct {
	Path    string
	Info    *waveform.Info
	Err     error
	Elapsed time.Duration
}

// maxBinaryLength bounds the column count read from a .dat header before
// allocating.
const maxBinaryLength = 1 << 26

// Decode reads an audiowaveform JSON document.
func Decode(r io.Reader) (*waveform.Info, error) {
	dec := json.NewDecoder(r)
	var rec waveform.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after json document", ErrMalformed)
	}
	return waveform.NewInfo(rec)
}

// binaryHeader is the fixed part of an audiowaveform .dat file.
type binaryHeader struct {
	Version         int32
	Flags           uint32
	SampleRate      int32
	SamplesPerPixel int32
	Length          uint32
}

const flag8Bit = 0x1

// DecodeBinary reads an audiowaveform .dat stream (little endian).
func DecodeBinary(r io.Reader) (*waveform.Info, error) {
	br := bufio.NewReader(r)

	var h binaryHeader
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}
	if h.Version != 1 && h.Version != 2 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, h.Version)
	}
	if h.Length > maxBinaryLength {
		return nil, fmt.Errorf("%w: length %d too large", ErrMalformed, h.Length)
	}

	channels := int32(1)
	if h.Version == 2 {
		if err := binary.Read(br, binary.LittleEndian, &channels); err != nil {
			return nil, fmt.Errorf("%w: read channels: %v", ErrMalformed, err)
		}
	}
	if channels != 1 {
		return nil, fmt.Errorf("%w: only mono envelopes are supported, got %d channels", ErrMalformed, channels)
	}

	rec := waveform.Record{
		Version:         int(h.Version),
		Channels:        int(channels),
		SampleRate:      int(h.SampleRate),
		SamplesPerPixel: int(h.SamplesPerPixel),
		Bits:            16,
		Length:          int(h.Length),
	}
	if h.Flags&flag8Bit != 0 {
		rec.Bits = 8
	}

	data, err := readSamples(br, 2*int(h.Length), rec.Bits)
	if err != nil {
		return nil, err
	}
	rec.Data = data

	return waveform.NewInfo(rec)
}

// readChunk is the number of values decoded per binary.Read.
const readChunk = 4096

// readSamples reads n little endian values of the given width. The slice grows
// with the bytes actually present, so a truncated file with a large header
// length fails without a header-sized allocation.
func readSamples(r io.Reader, n, bits int) ([]int, error) {
	data := make([]int, 0, min(n, readChunk))
	buf8 := make([]int8, readChunk)
	buf16 := make([]int16, readChunk)
	for len(data) < n {
		k := min(n-len(data), readChunk)
		var err error
		if bits == 8 {
			err = binary.Read(r, binary.LittleEndian, buf8[:k])
		} else {
			err = binary.Read(r, binary.LittleEndian, buf16[:k])
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read data at value %d of %d: %v", ErrMalformed, len(data), n, err)
		}
		for i := 0; i < k; i++ {
			if bits == 8 {
				data = append(data, int(buf8[i]))
			} else {
				data = append(data, int(buf16[i]))
			}
		}
	}
	return data, nil
}

// FormatOf returns the envelope layout and compression extension for path.
func FormatOf(path string) (Format, string, error) {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)

	compression := ""
	switch ext {
	case ".gz", ".zst", ".xz", ".lz4":
		compression = ext
		name = strings.TrimSuffix(name, ext)
		ext = filepath.Ext(name)
	}

	switch ext {
	case ".json":
		return FormatJSON, compression, nil
	case ".dat":
		return FormatBinary, compression, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// decompress wraps r according to the compression extension.
func decompress(r io.Reader, compression string) (io.Reader, func(), error) {
	switch compression {
	case "":
		return r, func() {}, nil
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: gzip: %v", ErrMalformed, err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: zstd: %v", ErrMalformed, err)
		}
		return zr, zr.Close, nil
	case ".xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: xz: %v", ErrMalformed, err)
		}
		return xr, func() {}, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: compression %q", ErrUnsupportedFormat, compression)
	}
}

// Read decodes a stream whose layout and compression are taken from name.
func Read(r io.Reader, name string) (*waveform.Info, error) {
	format, compression, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	dr, done, err := decompress(r, compression)
	if err != nil {
		return nil, err
	}
	defer done()

	switch format {
	case FormatBinary:
		return DecodeBinary(dr)
	default:
		return Decode(dr)
	}
}

// LoadFile reads and validates the envelope at path.
func LoadFile(path string) (*waveform.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open waveform: %w", err)
	}
	defer f.Close()

	info, err := Read(f, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return info, nil
}

// LoadAsync loads path on a new goroutine. The returned channel receives exactly
// one Result and is then closed. If ctx is canceled first, the Result carries
// ctx.Err().
func LoadAsync(ctx context.Context, path string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)

		began := time.Now()
		done := make(chan Result, 1)
		go func() {
			info, err := LoadFile(path)
			done <- Result{Path: path, Info: info, Err: err}
		}()

		var res Result
		select {
		case res = <-done:
		case <-ctx.Done():
			res = Result{Path: path, Err: ctx.Err()}
		}
		res.Elapsed = time.Since(began)
		out <- res
	}()
	return out
}
