//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package link implements the communicator between the parties. A
// Context multiplexes logical channels over one connection per peer
// pair. Contexts fork into children with disjoint channels so that
// nested sub-computations never see each other's messages.
package link

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/p2p"
	"github.com/markkurossi/text/superscript"
	"github.com/zeebo/blake3"
)

// Context implements the communicator of one party on one channel.
type Context struct {
	mesh    *mesh
	id      uint64
	forks   atomic.Uint64
	timeout time.Duration
}

type mesh struct {
	rank   int
	size   int
	peers  []*endpoint
	m      sync.Mutex
	closed bool
}

// New creates a communicator for party rank. The conns slice holds a
// connection to every peer, indexed by rank; the party's own entry is
// nil. Receives fail with LinkFailure if no message arrives within
// timeout.
func New(rank int, conns []*p2p.Conn, timeout time.Duration) (*Context, error) {
	size := len(conns)
	if size < 2 || rank < 0 || rank >= size {
		return nil, env.Errorf(env.ConfigurationError, "link",
			"invalid rank %d for %d parties", rank, size)
	}
	m := &mesh{
		rank:  rank,
		size:  size,
		peers: make([]*endpoint, size),
	}
	for i, conn := range conns {
		if i == rank {
			continue
		}
		if conn == nil {
			return nil, env.Errorf(env.ConfigurationError, "link",
				"no connection to peer %d", i)
		}
		m.peers[i] = newEndpoint(i, conn)
	}
	return &Context{
		mesh:    m,
		timeout: timeout,
	}, nil
}

// NewNetwork creates a communicator over the connected network of
// size parties.
func NewNetwork(nw *p2p.Network, size int, timeout time.Duration) (
	*Context, error) {

	conns := make([]*p2p.Conn, size)
	for i := 0; i < size; i++ {
		if i == nw.ID {
			continue
		}
		peer, err := nw.Peer(i)
		if err != nil {
			return nil, env.Wrap(env.LinkFailure, "link", err)
		}
		conns[i] = peer.Conn()
	}
	return New(nw.ID, conns, timeout)
}

// Local creates communicators for n in-process parties connected with
// pipes.
func Local(n int, timeout time.Duration) ([]*Context, error) {
	conns := make([][]*p2p.Conn, n)
	for i := range conns {
		conns[i] = make([]*p2p.Conn, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			conns[i][j], conns[j][i] = p2p.Pipe()
		}
	}
	var result []*Context
	for i := 0; i < n; i++ {
		ctx, err := New(i, conns[i], timeout)
		if err != nil {
			return nil, err
		}
		result = append(result, ctx)
	}
	return result, nil
}

func (ctx *Context) String() string {
	return "P" + superscript.Itoa(ctx.mesh.rank)
}

// Rank returns the party's rank.
func (ctx *Context) Rank() int {
	return ctx.mesh.rank
}

// WorldSize returns the number of parties.
func (ctx *Context) WorldSize() int {
	return ctx.mesh.size
}

// ID returns the channel ID.
func (ctx *Context) ID() uint64 {
	return ctx.id
}

// Timeout returns the receive timeout.
func (ctx *Context) Timeout() time.Duration {
	return ctx.timeout
}

// Fork creates a child context with a fresh channel. Parties must
// fork their contexts in the same order to agree on the child
// channels.
func (ctx *Context) Fork() *Context {
	seq := ctx.forks.Add(1)

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:], ctx.id)
	binary.BigEndian.PutUint64(buf[8:], seq)

	h := blake3.New()
	h.Write(buf[:])
	sum := h.Sum(nil)

	return &Context{
		mesh:    ctx.mesh,
		id:      binary.BigEndian.Uint64(sum),
		timeout: ctx.timeout,
	}
}

// Send sends data to the peer.
func (ctx *Context) Send(peer int, data []byte) error {
	ep, err := ctx.endpoint(peer)
	if err != nil {
		return err
	}
	if err := ep.send(ctx.id, data); err != nil {
		return env.Wrap(env.LinkFailure, ctx.op("send"), err)
	}
	return nil
}

// Recv receives data from the peer.
func (ctx *Context) Recv(peer int) ([]byte, error) {
	ep, err := ctx.endpoint(peer)
	if err != nil {
		return nil, err
	}
	data, err := ep.mailbox(ctx.id).get(ep, ctx.timeout)
	if err != nil {
		return nil, env.Wrap(env.LinkFailure,
			ctx.op(fmt.Sprintf("recv from %d", peer)), err)
	}
	return data, nil
}

// AllGather sends data to all peers and returns the data of all
// parties, indexed by rank.
func (ctx *Context) AllGather(data []byte) ([][]byte, error) {
	result := make([][]byte, ctx.mesh.size)
	result[ctx.mesh.rank] = data

	for i := 0; i < ctx.mesh.size; i++ {
		if i == ctx.mesh.rank {
			continue
		}
		if err := ctx.Send(i, data); err != nil {
			return nil, err
		}
	}
	for i := 0; i < ctx.mesh.size; i++ {
		if i == ctx.mesh.rank {
			continue
		}
		d, err := ctx.Recv(i)
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

// Broadcast sends the root party's data to all parties. The data
// argument is ignored on other parties.
func (ctx *Context) Broadcast(root int, data []byte) ([]byte, error) {
	if ctx.mesh.rank != root {
		return ctx.Recv(root)
	}
	for i := 0; i < ctx.mesh.size; i++ {
		if i == root {
			continue
		}
		if err := ctx.Send(i, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Barrier blocks until all parties have reached the barrier.
func (ctx *Context) Barrier() error {
	_, err := ctx.AllGather(nil)
	return err
}

// Stats returns the sum of all peer connections' I/O stats.
func (ctx *Context) Stats() p2p.IOStats {
	result := p2p.NewIOStats()
	for _, ep := range ctx.mesh.peers {
		if ep != nil {
			result = result.Add(ep.conn.Stats)
		}
	}
	return result
}

// Close closes all peer connections of the party. It closes the
// connections of all forked contexts too.
func (ctx *Context) Close() error {
	m := ctx.mesh
	m.m.Lock()
	if m.closed {
		m.m.Unlock()
		return nil
	}
	m.closed = true
	m.m.Unlock()

	var result error
	for _, ep := range m.peers {
		if ep == nil {
			continue
		}
		if err := ep.close(); err != nil && result == nil {
			result = err
		}
	}
	return result
}

func (ctx *Context) endpoint(peer int) (*endpoint, error) {
	if peer < 0 || peer >= ctx.mesh.size || peer == ctx.mesh.rank {
		return nil, env.Errorf(env.ConfigurationError, ctx.op("link"),
			"invalid peer %d", peer)
	}
	return ctx.mesh.peers[peer], nil
}

func (ctx *Context) op(name string) string {
	return fmt.Sprintf("%s %s", ctx, name)
}
