package jonx

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// defaultZstdLevel is the compression level spec.md §4.1 names as the
// writer default. Readers must accept frames written at any level.
const defaultZstdLevel = 7

// frameCodec owns a reusable zstd encoder/decoder pair, grounded on
// other_examples/mattdurham-tempo__writer.go's single long-lived
// *zstd.Encoder held across a writer's lifetime, and __reader.go's
// zstd.NewReader(nil) + DecodeAll usage.
type frameCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newFrameCodec() (*frameCodec, error) {
	return newFrameCodecAtLevel(defaultZstdLevel)
}

// newFrameCodecAtLevel creates a codec whose encoder compresses at the
// given zstd level. The decoder accepts payloads written at any level, per
// spec.md §4.1 ("the reader must accept any zstd-compatible payload
// regardless of the level used to write it").
func newFrameCodecAtLevel(level int) (*frameCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("jonx: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("jonx: create zstd decoder: %w", err)
	}
	return &frameCodec{enc: enc, dec: dec}, nil
}

func (c *frameCodec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// WriteFrame compresses plaintext and writes it as u32_le length || payload.
func (c *frameCodec) WriteFrame(w io.Writer, plaintext []byte) error {
	compressed := c.enc.EncodeAll(plaintext, nil)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(compressed)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("jonx: write frame length: %w", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("jonx: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads a length-prefixed frame from r and returns its
// decompressed plaintext.
func (c *frameCodec) ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameTruncated, err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])

	compressed := fetchBuffer(int(n))
	defer releaseBuffer(compressed)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameTruncated, err)
	}

	plaintext, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameCorrupt, err)
	}
	return plaintext, nil
}

// readFrameAt decodes the frame located at byte offset off in r, returning
// the plaintext and the total number of bytes (length prefix + payload)
// the frame occupies on disk.
func readFrameAt(c *frameCodec, r io.ReaderAt, off int64) (plaintext []byte, frameLen int64, err error) {
	var lenBuf [4]byte
	if _, err := r.ReadAt(lenBuf[:], off); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFrameTruncated, err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])

	compressed := fetchBuffer(int(n))
	defer releaseBuffer(compressed)
	if _, err := r.ReadAt(compressed, off+4); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFrameTruncated, err)
	}

	plaintext, err = c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFrameCorrupt, err)
	}
	return plaintext, int64(4 + n), nil
}
