//
// protocol_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
)

var frames = []Frame{
	{Channel: 0, Data: nil},
	{Channel: 1, Data: []byte("Hello, world!")},
	{Channel: 0x0102030405060708, Data: make([]byte, 1024)},
	{Channel: 7, Data: pattern(100*1024 + 3)},
	{Channel: 1, Data: pattern(2 * 1024 * 1024)},
	{Channel: 42, Data: make([]byte, 16*1024*1024)},
}

func TestFrames(t *testing.T) {
	cw, c := Pipe()

	errc := make(chan error, 1)
	go func() {
		for _, f := range frames {
			if err := cw.WriteFrame(f.Channel, f.Data); err != nil {
				errc <- err
				return
			}
		}
		errc <- cw.Flush()
	}()

	for idx, f := range frames {
		got, err := c.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", idx, err)
		}
		if got.Channel != f.Channel {
			t.Errorf("frame %d: channel %x, expected %x",
				idx, got.Channel, f.Channel)
		}
		if !bytes.Equal(got.Data, f.Data) {
			t.Errorf("frame %d: got [%v]byte, expected [%v]byte",
				idx, len(got.Data), len(f.Data))
		}
	}
	if err := <-errc; err != nil {
		t.Fatalf("writer: %v", err)
	}
	if cw.Stats.Sent.Load() != c.Stats.Recvd.Load() {
		t.Errorf("sent %v, received %v", cw.Stats.Sent.Load(),
			c.Stats.Recvd.Load())
	}

	// Close is idempotent.
	for i := 0; i < 2; i++ {
		if err := cw.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
	if _, err := c.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame after close: %v", err)
	}
	c.Close()
}

func TestHello(t *testing.T) {
	c0, c1 := Pipe()
	defer c0.Close()
	defer c1.Close()

	errc := make(chan error, 1)
	go func() {
		if err := c0.SendHello(3); err != nil {
			errc <- err
			return
		}
		if err := c0.WriteFrame(5, []byte("garbage")); err != nil {
			errc <- err
			return
		}
		errc <- c0.Flush()
	}()

	id, err := c1.ReceiveHello()
	if err != nil {
		t.Fatalf("ReceiveHello: %v", err)
	}
	if id != 3 {
		t.Errorf("ReceiveHello: got %v, expected 3", id)
	}

	_, err = c1.ReceiveHello()
	if !errors.Is(err, ErrHandshake) {
		t.Errorf("ReceiveHello: got %v, expected %v", err, ErrHandshake)
	}
	if err := <-errc; err != nil {
		t.Fatalf("writer: %v", err)
	}
}

func TestMalformed(t *testing.T) {
	raw, nc := net.Pipe()
	c := NewConn(nc)
	defer c.Close()

	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint64(hdr[0:], 1)
	binary.BigEndian.PutUint32(hdr[8:], MaxFrameSize+1)
	go raw.Write(hdr[:])

	_, err := c.ReadFrame()
	if !errors.Is(err, ErrFrameSize) {
		t.Errorf("oversized frame: got %v, expected %v", err, ErrFrameSize)
	}

	raw, nc = net.Pipe()
	c = NewConn(nc)
	defer c.Close()

	binary.BigEndian.PutUint32(hdr[8:], 100)
	go func() {
		raw.Write(hdr[:])
		raw.Write(make([]byte, 10))
		raw.Close()
	}()
	_, err = c.ReadFrame()
	if err != io.ErrUnexpectedEOF {
		t.Errorf("truncated frame: got %v, expected %v",
			err, io.ErrUnexpectedEOF)
	}
}

var errBroken = errors.New("broken connection")

type brokenConn struct{}

func (brokenConn) Read(p []byte) (int, error) {
	return 0, io.EOF
}

func (brokenConn) Write(p []byte) (int, error) {
	return 0, errBroken
}

func TestWriteError(t *testing.T) {
	c := NewConn(brokenConn{})

	// The writer goroutine reports the error while the caller keeps
	// flushing.
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = c.WriteFrame(1, pattern(1000))
		if err == nil {
			err = c.Flush()
		}
	}
	if err != nil && !errors.Is(err, errBroken) {
		t.Errorf("Flush: got %v, expected %v", err, errBroken)
	}
	if err := c.Close(); !errors.Is(err, errBroken) {
		t.Errorf("Close: got %v, expected %v", err, errBroken)
	}
	if err := c.Close(); !errors.Is(err, errBroken) {
		t.Errorf("second Close: got %v, expected %v", err, errBroken)
	}
}

func pattern(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	return buf
}
