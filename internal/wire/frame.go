package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// LegacyReplySize is the single-read size of a legacy reply.
const LegacyReplySize = 8192

// maxLengthDigits bounds the decimal prefix; anything longer cannot be a
// sane frame on a local socket.
const maxLengthDigits = 19

var (
	// ErrMalformedLength reports a length prefix that is not a decimal count
	// followed by a newline.
	ErrMalformedLength = errors.New("malformed frame length")
	// ErrFrameTooLarge reports a declared length above the reader's limit.
	ErrFrameTooLarge = errors.New("frame exceeds size limit")
)

// WriteFrame writes the decimal length of payload, a newline, then payload,
// as separate writes in that order. A short write is reported as
// io.ErrShortWrite.
func WriteFrame(w io.Writer, payload []byte) error {
	if err := writeAll(w, []byte(strconv.Itoa(len(payload)))); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if err := writeAll(w, []byte{'\n'}); err != nil {
		return fmt.Errorf("write frame separator: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if err := writeAll(w, payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

func writeAll(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// Reader decodes frames from a byte stream.
type Reader struct {
	br  *bufio.Reader
	max int
}

// NewReader returns a Reader over r. A positive max rejects frames that
// declare more than max payload bytes before any payload is allocated.
func NewReader(r io.Reader, max int) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{br: br, max: max}
}

// ReadFrame reads one complete frame. It returns io.EOF only when the stream
// ends cleanly before the first byte of a frame; a stream that ends inside a
// frame yields io.ErrUnexpectedEOF.
func (r *Reader) ReadFrame() ([]byte, error) {
	size, err := r.readLength()
	if err != nil {
		return nil, err
	}
	if r.max > 0 && size > r.max {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrFrameTooLarge, size, r.max)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.br, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

func (r *Reader) readLength() (int, error) {
	digits := make([]byte, 0, maxLengthDigits)
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(digits) == 0 {
					return 0, io.EOF
				}
				return 0, fmt.Errorf("read frame length: %w", io.ErrUnexpectedEOF)
			}
			return 0, fmt.Errorf("read frame length: %w", err)
		}
		if b == '\n' {
			break
		}
		if b < '0' || b > '9' || len(digits) == maxLengthDigits {
			return 0, fmt.Errorf("%w: unexpected byte %q", ErrMalformedLength, b)
		}
		digits = append(digits, b)
	}
	if len(digits) == 0 {
		return 0, fmt.Errorf("%w: empty length", ErrMalformedLength)
	}
	size, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedLength, err)
	}
	return size, nil
}

// ReadLegacy performs a legacy reply read: a single read of at
// most size bytes, with no framing. A clean end of stream returns no data
// and no error.
func ReadLegacy(r io.Reader, size int) ([]byte, error) {
	if size <= 0 {
		size = LegacyReplySize
	}
	buf := make([]byte, size)
	n, err := r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return buf[:n], err
	}
	return buf[:n], nil
}
