package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter forwards writes to a wrapped writer and flushes after every
// write so buffered report output appears immediately.
type FlushingWriter struct {
	destination io.Writer
	flushTarget flusher
	writeGuard  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. Writers without a Flush method
// are forwarded to unchanged; a nil writer yields a nil result.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyFlushing := destination.(*FlushingWriter); alreadyFlushing {
		return destination
	}

	wrappedWriter := &FlushingWriter{destination: destination}
	if flushTarget, supportsFlush := destination.(flusher); supportsFlush {
		wrappedWriter.flushTarget = flushTarget
	}
	return wrappedWriter
}

// Write forwards the data and flushes the destination when it supports it.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.writeGuard.Lock()
	defer flushingWriter.writeGuard.Unlock()

	writtenByteCount, writeError := flushingWriter.destination.Write(data)
	if writeError != nil {
		return writtenByteCount, writeError
	}
	if flushingWriter.flushTarget != nil {
		if flushError := flushingWriter.flushTarget.Flush(); flushError != nil {
			return writtenByteCount, flushError
		}
	}
	return writtenByteCount, nil
}
