//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package link

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/p2p"
)

var errClosed = errors.New("connection closed")

// endpoint holds the connection to one peer. A reader goroutine
// demultiplexes the incoming frames into per-channel mailboxes.
type endpoint struct {
	peer  int
	conn  *p2p.Conn
	wm    sync.Mutex
	m     sync.Mutex
	boxes map[uint64]*mailbox
	done  chan struct{}
	err   error
	shut  bool
}

func newEndpoint(peer int, conn *p2p.Conn) *endpoint {
	ep := &endpoint{
		peer:  peer,
		conn:  conn,
		boxes: make(map[uint64]*mailbox),
		done:  make(chan struct{}),
	}
	go ep.reader()
	return ep
}

func (ep *endpoint) reader() {
	for {
		frame, err := ep.conn.ReadFrame()
		if err != nil {
			ep.fail(err)
			return
		}
		if frame.Channel == p2p.HelloChannel {
			ep.fail(env.Errorf(env.ProtocolViolation, "link",
				"unexpected handshake frame"))
			return
		}
		ep.mailbox(frame.Channel).put(frame.Data)
	}
}

func (ep *endpoint) fail(err error) {
	ep.m.Lock()
	switch {
	case err == io.EOF || ep.shut:
		err = errClosed
	case errors.Is(err, p2p.ErrFrameSize):
		err = env.Wrap(env.ProtocolViolation, "link", err)
	}
	ep.err = fmt.Errorf("peer %d: %w", ep.peer, err)
	ep.m.Unlock()
	close(ep.done)
}

func (ep *endpoint) failure() error {
	ep.m.Lock()
	defer ep.m.Unlock()
	return ep.err
}

func (ep *endpoint) mailbox(id uint64) *mailbox {
	ep.m.Lock()
	defer ep.m.Unlock()

	mb, ok := ep.boxes[id]
	if !ok {
		mb = &mailbox{
			notify: make(chan struct{}, 1),
		}
		ep.boxes[id] = mb
	}
	return mb
}

func (ep *endpoint) send(id uint64, data []byte) error {
	ep.wm.Lock()
	defer ep.wm.Unlock()

	if ep.shut {
		return errClosed
	}
	if err := ep.conn.WriteFrame(id, data); err != nil {
		return err
	}
	return ep.conn.Flush()
}

func (ep *endpoint) close() error {
	ep.wm.Lock()
	defer ep.wm.Unlock()

	ep.m.Lock()
	ep.shut = true
	ep.m.Unlock()

	return ep.conn.Close()
}

// mailbox queues the messages of one channel from one peer. Each
// mailbox has a single consumer.
type mailbox struct {
	m      sync.Mutex
	queue  [][]byte
	notify chan struct{}
}

func (mb *mailbox) put(data []byte) {
	mb.m.Lock()
	mb.queue = append(mb.queue, data)
	mb.m.Unlock()

	select {
	case mb.notify <- struct{}{}:
	default:
	}
}

func (mb *mailbox) get(ep *endpoint, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		mb.m.Lock()
		if len(mb.queue) > 0 {
			data := mb.queue[0]
			mb.queue[0] = nil
			mb.queue = mb.queue[1:]
			mb.m.Unlock()
			return data, nil
		}
		mb.m.Unlock()

		select {
		case <-mb.notify:
		case <-ep.done:
			// Deliver messages that arrived before the failure.
			mb.m.Lock()
			pending := len(mb.queue)
			mb.m.Unlock()
			if pending > 0 {
				continue
			}
			return nil, ep.failure()
		case <-timer.C:
			return nil, fmt.Errorf("peer %d: timeout after %v", ep.peer, timeout)
		}
	}
}
