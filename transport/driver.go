// Package transport implements the flush/refill driver loop (§4.6)
// that sits between a resumable codec (BindMessageWriter, ArrayCodec,
// or any handler.ChunkingWriter/Reader) and a buffer.Transport.
package transport

import (
	"context"

	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/metrics"
)

// Writer is anything that drives forward like BindMessageWriter:
// write into buf, returning done, an optional direct-buffer bypass
// slice, or an error.
type Writer interface {
	Write(buf *buffer.ByteBuffer) (done bool, directBuf []byte, err error)
}

// DriveWrite repeatedly calls w.Write(buf), flushing buf to t between
// calls when the writer suspends with no direct buffer, or sending
// directBuf straight to t when one is returned, per §4.6: "If it
// returns false: if direct_buf is populated, send direct_buf to
// transport then null it; else flush buf to transport. Re-enter."
// buf is always flushed first, even on the direct-buffer branch: buf
// may already hold bytes (a header, earlier parameters, the length
// prefix the writer just staged ahead of this very blob) that must
// reach the wire before direct does, to preserve message ordering.
// It returns once w reports done, flushing any final bytes still
// sitting in buf first.
func DriveWrite(ctx context.Context, w Writer, buf *buffer.ByteBuffer, t buffer.Transport) error {
	return DriveWriteMetered(ctx, w, buf, t, nil)
}

// DriveWriteMetered is DriveWrite with an optional Metrics sink; pass
// nil to skip instrumentation entirely.
func DriveWriteMetered(ctx context.Context, w Writer, buf *buffer.ByteBuffer, t buffer.Transport, m *metrics.Metrics) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, direct, err := w.Write(buf)
		if err != nil {
			return err
		}
		if done {
			return buf.Flush(t)
		}
		if m != nil {
			m.ObserveSuspension(metrics.DirectionWrite)
		}
		if direct != nil {
			// Whatever the writer has already staged in buf (header,
			// earlier parameters, the length prefix for this very
			// parameter) must hit the wire before direct does, or the
			// bypass reorders ahead of bytes that logically precede it.
			if err := buf.Flush(t); err != nil {
				return err
			}
			if m != nil {
				m.ObserveFlush()
			}
			if err := t.Flush(direct); err != nil {
				return err
			}
			continue
		}
		if err := buf.Flush(t); err != nil {
			return err
		}
		if m != nil {
			m.ObserveFlush()
		}
	}
}

// Reader is anything that drives forward like ArrayCodec's Read or a
// handler.ChunkingReader: read from buf, returning done, a decoded
// value, or an error.
type Reader[T any] interface {
	Read(buf *buffer.ByteBuffer) (done bool, value T, err error)
}

// DriveRead is DriveWrite's read-side symmetric counterpart: refill
// buf from t whenever r suspends, re-entering until r reports done.
func DriveRead[T any](ctx context.Context, r Reader[T], buf *buffer.ByteBuffer, t buffer.Transport) (T, error) {
	return DriveReadMetered(ctx, r, buf, t, nil)
}

// DriveReadMetered is DriveRead with an optional Metrics sink; pass
// nil to skip instrumentation entirely.
func DriveReadMetered[T any](ctx context.Context, r Reader[T], buf *buffer.ByteBuffer, t buffer.Transport, m *metrics.Metrics) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		done, value, err := r.Read(buf)
		if done {
			return value, err
		}
		if err != nil {
			return zero, err
		}
		if m != nil {
			m.ObserveSuspension(metrics.DirectionRead)
		}
		if _, err := buf.Refill(t); err != nil {
			return zero, err
		}
		if m != nil {
			m.ObserveRefill()
		}
	}
}
