//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// Network implements a full mesh of peer connections. Each party
// dials the peers with smaller IDs and accepts connections from the
// peers with larger IDs.
type Network struct {
	ID         int
	RetryDelay time.Duration
	Verbose    bool
	m          sync.Mutex
	c          *sync.Cond
	Peers      map[int]*Peer
	addr       string
	listener   net.Listener
	closed     bool
}

// NewNetwork creates a new peer-to-peer network listening at addr.
func NewNetwork(addr string, id int) (*Network, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	nw := &Network{
		ID:         id,
		RetryDelay: time.Second,
		Peers:      make(map[int]*Peer),
		addr:       addr,
		listener:   listener,
	}
	nw.c = sync.NewCond(&nw.m)
	go nw.acceptLoop()
	return nw, nil
}

// Addr returns the network's listener address.
func (nw *Network) Addr() net.Addr {
	return nw.listener.Addr()
}

// Close closes the network listener and all peer connections.
func (nw *Network) Close() error {
	nw.m.Lock()
	nw.closed = true
	peers := nw.Peers
	nw.Peers = make(map[int]*Peer)
	nw.c.Broadcast()
	nw.m.Unlock()

	err := nw.listener.Close()
	for _, peer := range peers {
		peer.Close()
	}
	return err
}

// Connect connects the network to all peers. The addrs specify the
// addresses of all parties, indexed by party ID. Connect returns when
// all peer connections are established or the timeout expires.
func (nw *Network) Connect(addrs []string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for id := 0; id < nw.ID; id++ {
		if err := nw.AddPeer(addrs[id], id, deadline); err != nil {
			return err
		}
	}
	return nw.waitPeers(len(addrs)-1, deadline)
}

// AddPeer connects to the peer id at addr. It retries until the
// connection succeeds or the deadline expires.
func (nw *Network) AddPeer(addr string, id int, deadline time.Time) error {
	for {
		// Check if we have already connected peer `id`.
		nw.m.Lock()
		_, ok := nw.Peers[id]
		nw.m.Unlock()
		if ok {
			return nil
		}

		nw.debugf("NW %d: Connecting to peer %d...\n", nw.ID, id)
		nc, err := net.Dial("tcp", addr)
		if err != nil {
			if time.Now().Add(nw.RetryDelay).After(deadline) {
				return fmt.Errorf("connect to peer %d at %s: %w", id, addr, err)
			}
			nw.debugf("NW %d: Connect to %s failed, retrying in %s\n",
				nw.ID, addr, nw.RetryDelay)
			<-time.After(nw.RetryDelay)
			continue
		}
		nw.debugf("NW %d: Connected to %s\n", nw.ID, addr)
		conn := NewConn(nc)

		if err := conn.SendHello(nw.ID); err != nil {
			conn.Close()
			return err
		}
		return nw.newPeer(conn, id)
	}
}

func (nw *Network) waitPeers(count int, deadline time.Time) error {
	timer := time.AfterFunc(time.Until(deadline), func() {
		nw.m.Lock()
		nw.c.Broadcast()
		nw.m.Unlock()
	})
	defer timer.Stop()

	nw.m.Lock()
	defer nw.m.Unlock()

	for len(nw.Peers) < count {
		if nw.closed {
			return fmt.Errorf("network closed")
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timeout: %d/%d peers connected",
				len(nw.Peers), count)
		}
		nw.c.Wait()
	}
	return nil
}

// Peer returns the connection to the peer id.
func (nw *Network) Peer(id int) (*Peer, error) {
	nw.m.Lock()
	defer nw.m.Unlock()

	peer, ok := nw.Peers[id]
	if !ok {
		return nil, fmt.Errorf("unknown peer %d", id)
	}
	return peer, nil
}

// Stats returns the I/O stats from the network.
func (nw *Network) Stats() IOStats {
	nw.m.Lock()
	defer nw.m.Unlock()

	result := NewIOStats()
	for _, peer := range nw.Peers {
		result = result.Add(peer.conn.Stats)
	}
	return result
}

func (nw *Network) acceptLoop() {
	for {
		nc, err := nw.listener.Accept()
		if err != nil {
			nw.debugf("NW %d: accept failed: %s\n", nw.ID, err)
			return
		}
		go nw.accept(NewConn(nc))
	}
}

// accept runs the handshake of an inbound connection. Only peers with
// larger IDs dial us.
func (nw *Network) accept(conn *Conn) {
	id, err := conn.ReceiveHello()
	if err == nil && id <= nw.ID {
		err = fmt.Errorf("%w: unexpected inbound peer %d", ErrHandshake, id)
	}
	if err == nil {
		err = nw.newPeer(conn, id)
	} else {
		conn.Close()
	}
	if err != nil {
		log.Printf("NW %d: inbound connection: %s\n", nw.ID, err)
	}
}

func (nw *Network) newPeer(conn *Conn, id int) error {
	nw.m.Lock()
	defer nw.m.Unlock()

	if nw.closed {
		conn.Close()
		return fmt.Errorf("network closed")
	}
	_, ok := nw.Peers[id]
	if ok {
		conn.Close()
		return fmt.Errorf("peer %d already connected", id)
	}
	nw.Peers[id] = &Peer{
		ID:   id,
		conn: conn,
	}
	nw.c.Broadcast()
	return nil
}

func (nw *Network) debugf(format string, a ...interface{}) {
	if nw.Verbose {
		log.Printf(format, a...)
	}
}

// Peer implements a peer in the peer-to-peer network.
type Peer struct {
	ID   int
	conn *Conn
}

// Conn returns the peer connection.
func (peer *Peer) Conn() *Conn {
	return peer.conn
}

// Close closes the peer connection.
func (peer *Peer) Close() error {
	return peer.conn.Close()
}
