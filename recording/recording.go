// Package recording implements the binary recording format used by the
// record/replay example collaborators (spec.md §6): a flat concatenation
// of records, each an 8-byte little-endian microsecond inter-arrival delay
// followed by one wire.TrackingMessage frame.
package recording

import (
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/SludgePhD/Providence/wire"
)

// Record pairs one decoded message with the delay since the previous
// record (or since recording started, for the first record).
type Record struct {
	Delay   time.Duration
	Message *wire.TrackingMessage
}

// Writer appends records to an underlying stream, tracking elapsed time
// between calls to Write so callers don't have to compute delays
// themselves.
type Writer struct {
	w    io.Writer
	last time.Time
}

// NewWriter creates a Writer. The first call to Write measures its delay
// from the moment NewWriter was called.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, last: time.Now()}
}

// Write appends one record for msg, with inter-arrival delay measured
// since the previous Write (or since NewWriter, for the first record).
func (rw *Writer) Write(msg *wire.TrackingMessage) error {
	now := time.Now()
	delay := now.Sub(rw.last)
	rw.last = now

	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], uint64(delay.Microseconds()))
	if _, err := rw.w.Write(header[:]); err != nil {
		return err
	}
	return wire.WriteMessage(rw.w, msg)
}

// Reader reads records back from a stream written by Writer.
type Reader struct {
	r io.Reader
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read returns the next record, or io.EOF if the stream ends cleanly
// between records.
func (rr *Reader) Read() (Record, error) {
	var header [8]byte
	if _, err := io.ReadFull(rr.r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, io.ErrUnexpectedEOF
		}
		return Record{}, err
	}
	delayMicros := binary.LittleEndian.Uint64(header[:])

	msg, err := wire.ReadMessage(rr.r)
	if err != nil {
		return Record{}, err
	}

	return Record{Delay: time.Duration(delayMicros) * time.Microsecond, Message: msg}, nil
}
