//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements framed peer connections and the full mesh
// network connecting the parties. A connection carries frames tagged
// with a channel ID so that the communicator can multiplex any number
// of forked channels over one connection.
package p2p

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

const (
	numBuffers   = 3
	writeBufSize = 64 * 1024
	readBufSize  = 256 * 1024

	frameHeaderSize = 12

	// MaxFrameSize is the maximum frame payload size.
	MaxFrameSize = 1 << 30

	// HelloChannel is the channel ID of the connection handshake.
	HelloChannel = ^uint64(0)

	protocolVersion = 1
)

var helloMagic = [4]byte{'R', 'M', 'P', 'C'}

// Protocol errors.
var (
	ErrFrameSize = errors.New("frame too large")
	ErrHandshake = errors.New("invalid handshake")
)

// Frame holds one message of a channel.
type Frame struct {
	Channel uint64
	Data    []byte
}

// Conn implements a framed protocol connection. Writes are buffered
// and written by a writer goroutine so that the caller can continue
// while the previous buffer is being sent.
type Conn struct {
	conn   io.ReadWriter
	wbuf   []byte
	wpos   int
	rbuf   []byte
	rstart int
	rend   int
	Stats  IOStats

	fromWriter chan []byte
	toWriter   chan []byte
	writerM    sync.Mutex
	writerErr  error

	closeOnce sync.Once
	closeErr  error
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add returns the sum of the stats and o.
func (stats IOStats) Add(o IOStats) IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.Sent.Load() + o.Sent.Load())
	result.Recvd.Store(stats.Recvd.Load() + o.Recvd.Load())
	result.Flushed.Store(stats.Flushed.Load() + o.Flushed.Load())
	return result
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

func (stats IOStats) String() string {
	return fmt.Sprintf("sent=%d, rcvd=%d, flushed=%d",
		stats.Sent.Load(), stats.Recvd.Load(), stats.Flushed.Load())
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	c := &Conn{
		conn:       conn,
		rbuf:       make([]byte, readBufSize),
		fromWriter: make(chan []byte, numBuffers),
		toWriter:   make(chan []byte, numBuffers),
		Stats:      NewIOStats(),
	}
	go c.writer()
	c.wbuf = <-c.fromWriter

	return c
}

func (c *Conn) writer() {
	for i := 0; i < numBuffers; i++ {
		c.fromWriter <- make([]byte, writeBufSize)
	}
	for buf := range c.toWriter {
		if c.writeError() == nil {
			_, err := c.conn.Write(buf)
			if err != nil {
				c.writerM.Lock()
				c.writerErr = err
				c.writerM.Unlock()
			}
		}
		c.fromWriter <- buf[0:cap(buf)]
	}
	close(c.fromWriter)
}

// writeError returns the first error of the writer goroutine.
func (c *Conn) writeError() error {
	c.writerM.Lock()
	defer c.writerM.Unlock()
	return c.writerErr
}

// Flush sends any pending data.
func (c *Conn) Flush() error {
	if c.wpos == 0 {
		return nil
	}
	c.Stats.Sent.Add(uint64(c.wpos))
	c.toWriter <- c.wbuf[0:c.wpos]

	next := <-c.fromWriter
	if err := c.writeError(); err != nil {
		return err
	}
	c.wbuf = next
	c.wpos = 0
	c.Stats.Flushed.Add(1)

	return nil
}

// Close flushes any pending data and closes the connection. Close
// can be called multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Flush()

		// Wait that the writer completes.
		close(c.toWriter)
		for range c.fromWriter {
		}
		if c.closeErr == nil {
			c.closeErr = c.writeError()
		}
		closer, ok := c.conn.(io.Closer)
		if ok {
			err := closer.Close()
			if c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}

// write appends data to the write buffer, flushing full buffers.
func (c *Conn) write(data []byte) error {
	for len(data) > 0 {
		if c.wpos >= len(c.wbuf) {
			if err := c.Flush(); err != nil {
				return err
			}
		}
		n := copy(c.wbuf[c.wpos:], data)
		c.wpos += n
		data = data[n:]
	}
	return nil
}

// WriteFrame writes the frame into the write buffer. The frame is
// sent when the buffer fills or on Flush.
func (c *Conn) WriteFrame(channel uint64, data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameSize, len(data))
	}
	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint64(hdr[0:], channel)
	binary.BigEndian.PutUint32(hdr[8:], uint32(len(data)))
	if err := c.write(hdr[:]); err != nil {
		return err
	}
	return c.write(data)
}

// fill reads from the connection until the read buffer holds n
// unread bytes.
func (c *Conn) fill(n int) error {
	if c.rend-c.rstart >= n {
		return nil
	}
	if c.rstart > 0 {
		copy(c.rbuf, c.rbuf[c.rstart:c.rend])
		c.rend -= c.rstart
		c.rstart = 0
	}
	if n > len(c.rbuf) {
		buf := make([]byte, n)
		copy(buf, c.rbuf[:c.rend])
		c.rbuf = buf
	}
	for c.rend < n {
		got, err := c.conn.Read(c.rbuf[c.rend:])
		c.Stats.Recvd.Add(uint64(got))
		c.rend += got
		if err != nil {
			if err == io.EOF && c.rend > 0 && c.rend < n {
				return io.ErrUnexpectedEOF
			}
			if c.rend >= n {
				return nil
			}
			return err
		}
	}
	return nil
}

// ReadFrame reads the next frame from the connection.
func (c *Conn) ReadFrame() (*Frame, error) {
	if err := c.fill(frameHeaderSize); err != nil {
		return nil, err
	}
	hdr := c.rbuf[c.rstart : c.rstart+frameHeaderSize]
	channel := binary.BigEndian.Uint64(hdr[0:])
	size := int(binary.BigEndian.Uint32(hdr[8:]))
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameSize, size)
	}
	c.rstart += frameHeaderSize

	if err := c.fill(size); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	data := make([]byte, size)
	copy(data, c.rbuf[c.rstart:c.rstart+size])
	c.rstart += size

	return &Frame{
		Channel: channel,
		Data:    data,
	}, nil
}

// SendHello sends the connection handshake with the party ID.
func (c *Conn) SendHello(id int) error {
	var data [10]byte
	copy(data[0:], helloMagic[:])
	binary.BigEndian.PutUint16(data[4:], protocolVersion)
	binary.BigEndian.PutUint32(data[6:], uint32(id))
	if err := c.WriteFrame(HelloChannel, data[:]); err != nil {
		return err
	}
	return c.Flush()
}

// ReceiveHello receives the connection handshake and returns the
// peer's party ID.
func (c *Conn) ReceiveHello() (int, error) {
	frame, err := c.ReadFrame()
	if err != nil {
		return 0, err
	}
	data := frame.Data
	if frame.Channel != HelloChannel || len(data) != 10 ||
		[4]byte(data[0:4]) != helloMagic {
		return 0, ErrHandshake
	}
	version := binary.BigEndian.Uint16(data[4:])
	if version != protocolVersion {
		return 0, fmt.Errorf("%w: version %d", ErrHandshake, version)
	}
	return int(binary.BigEndian.Uint32(data[6:])), nil
}
