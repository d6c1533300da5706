package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"assessrag/internal/domain"
)

const (
	codecMagic   = "ARIX"
	codecVersion = 1

	maxIDLen = 1 << 10
)

// MarshalBinary encodes the index. Vectors are written as raw IEEE-754 bits
// so that a decoded index answers searches bit-identically.
//
// Layout (little-endian): magic, version u32, dim u32, count u32,
// count × (idLen u16, id), count×dim × f32 bits, crc32 of everything before.
func (x *FlatIndex) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := x.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the encoded index to w.
func (x *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	crc := crc32.NewIEEE()
	cw := &countingWriter{w: io.MultiWriter(w, crc)}
	bw := bufio.NewWriter(cw)

	bw.WriteString(codecMagic)
	writeU32(bw, codecVersion)
	writeU32(bw, uint32(x.dim))
	writeU32(bw, uint32(len(x.ids)))
	for _, id := range x.ids {
		if len(id) > maxIDLen {
			return cw.n, fmt.Errorf("chunk id too long: %d bytes", len(id))
		}
		writeU16(bw, uint16(len(id)))
		bw.WriteString(id)
	}
	for _, f := range x.data {
		writeU32(bw, math.Float32bits(f))
	}
	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("write index: %w", err)
	}

	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], crc.Sum32())
	n, err := w.Write(sum[:])
	if err != nil {
		return cw.n + int64(n), fmt.Errorf("write index checksum: %w", err)
	}
	return cw.n + int64(n), nil
}

// UnmarshalIndex decodes an index produced by MarshalBinary.
func UnmarshalIndex(data []byte) (*FlatIndex, error) {
	return ReadIndex(bytes.NewReader(data))
}

// ReadIndex decodes an index from r. Truncated, tampered or foreign input
// fails with domain.ErrIndexCorruption.
func ReadIndex(r io.Reader) (*FlatIndex, error) {
	crc := crc32.NewIEEE()
	br := bufio.NewReader(r)
	tr := io.TeeReader(br, crc)

	magic := make([]byte, len(codecMagic))
	if _, err := io.ReadFull(tr, magic); err != nil {
		return nil, corrupt(err)
	}
	if string(magic) != codecMagic {
		return nil, fmt.Errorf("%w: bad magic %q", domain.ErrIndexCorruption, magic)
	}

	version, err := readU32(tr)
	if err != nil {
		return nil, corrupt(err)
	}
	if version != codecVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d", domain.ErrIndexCorruption, version)
	}

	dim, err := readU32(tr)
	if err != nil {
		return nil, corrupt(err)
	}
	count, err := readU32(tr)
	if err != nil {
		return nil, corrupt(err)
	}
	if dim == 0 || count == 0 {
		return nil, fmt.Errorf("%w: empty index header (dim=%d, count=%d)", domain.ErrIndexCorruption, dim, count)
	}

	ids := make([]string, 0, min(int(count), 1<<16))
	for i := uint32(0); i < count; i++ {
		n, err := readU16(tr)
		if err != nil {
			return nil, corrupt(err)
		}
		if int(n) > maxIDLen {
			return nil, fmt.Errorf("%w: chunk id length %d", domain.ErrIndexCorruption, n)
		}
		id := make([]byte, n)
		if _, err := io.ReadFull(tr, id); err != nil {
			return nil, corrupt(err)
		}
		ids = append(ids, string(id))
	}

	total := uint64(dim) * uint64(count)
	data := make([]float32, 0, min(total, 1<<20))
	for i := uint64(0); i < total; i++ {
		bits, err := readU32(tr)
		if err != nil {
			return nil, corrupt(err)
		}
		data = append(data, math.Float32frombits(bits))
	}

	want := crc.Sum32()
	got, err := readU32(br)
	if err != nil {
		return nil, corrupt(err)
	}
	if got != want {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrIndexCorruption)
	}

	return &FlatIndex{dim: int(dim), ids: ids, data: data}, nil
}

func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated index", domain.ErrIndexCorruption)
	}
	return fmt.Errorf("%w: %v", domain.ErrIndexCorruption, err)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeU32(w *bufio.Writer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func writeU16(w *bufio.Writer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}
