package record

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// FrameReader splits a binary stream into frame bodies.
type FrameReader struct {
	r      *bufio.Reader
	order  binary.ByteOrder
	buf    []byte
	frames int64
	bytes  int64
}

// NewFrameReader reads frames from r. Nil order means binary.NativeEndian.
func NewFrameReader(r io.Reader, order binary.ByteOrder) *FrameReader {
	if order == nil {
		order = binary.NativeEndian
	}
	return &FrameReader{
		r:     bufio.NewReaderSize(r, 64*1024),
		order: order,
		buf:   make([]byte, 0, 4096),
	}
}

// ReadFrame returns the next frame body. The slice is only valid until the
// next call. io.EOF is returned only when the stream ends exactly on a frame
// boundary; any truncation is a row overflow.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	var hdr [lengthSize]byte
	n, err := io.ReadFull(fr.r, hdr[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fr.truncated("length prefix")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read frame header")
	}

	size := int(fr.order.Uint16(hdr[:]))
	if size > MaxBody {
		return nil, errors.Newf(errors.ErrorTypeRowOverflow,
			"frame %d declares %d bytes, the maximum is %d", fr.frames+1, size, MaxBody)
	}

	if cap(fr.buf) < size+1 {
		fr.buf = make([]byte, size+1)
	}
	fr.buf = fr.buf[:size+1]
	if _, err := io.ReadFull(fr.r, fr.buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fr.truncated("body")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read frame body")
	}

	if fr.buf[size] != Terminator {
		return nil, errors.Newf(errors.ErrorTypeRowOverflow,
			"frame %d ends with 0x%02x instead of the record terminator", fr.frames+1, fr.buf[size])
	}

	fr.frames++
	fr.bytes += int64(lengthSize + size + 1)
	return fr.buf[:size], nil
}

func (fr *FrameReader) truncated(part string) error {
	return errors.Newf(errors.ErrorTypeRowOverflow, "input ends inside the %s of frame %d", part, fr.frames+1).
		WithDetail("offset", fr.bytes)
}

// Frames returns the number of frames read so far.
func (fr *FrameReader) Frames() int64 { return fr.frames }

// BytesRead returns the number of stream bytes consumed by complete frames.
func (fr *FrameReader) BytesRead() int64 { return fr.bytes }

// FrameWriter writes complete frames to a buffered stream.
type FrameWriter struct {
	w      *bufio.Writer
	frames int64
	bytes  int64
}

// NewFrameWriter writes frames to w. Call Flush when done.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: bufio.NewWriterSize(w, 64*1024)}
}

// WriteFrame writes one complete frame as returned by Codec.AppendFrame.
func (fw *FrameWriter) WriteFrame(frame []byte) error {
	if _, err := fw.w.Write(frame); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write frame")
	}
	fw.frames++
	fw.bytes += int64(len(frame))
	return nil
}

// Flush writes any buffered frames to the underlying writer.
func (fw *FrameWriter) Flush() error {
	if err := fw.w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush frames")
	}
	return nil
}

// Frames returns the number of frames written so far.
func (fw *FrameWriter) Frames() int64 { return fw.frames }

// BytesWritten returns the number of frame bytes written so far.
func (fw *FrameWriter) BytesWritten() int64 { return fw.bytes }
