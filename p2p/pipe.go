//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"net"
)

// Pipe creates a pair of connected in-memory connections. Frames
// written to one end can be read from the other.
func Pipe() (*Conn, *Conn) {
	c0, c1 := net.Pipe()
	return NewConn(c0), NewConn(c1)
}
