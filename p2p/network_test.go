//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNetwork(t *testing.T) {
	const n = 3

	var nws []*Network
	var addrs []string
	for i := 0; i < n; i++ {
		nw, err := NewNetwork("127.0.0.1:0", i)
		if err != nil {
			t.Fatalf("NewNetwork: %v", err)
		}
		nw.RetryDelay = 10 * time.Millisecond
		defer nw.Close()
		nws = append(nws, nw)
		addrs = append(addrs, nw.Addr().String())
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = nws[i].Connect(addrs, 5*time.Second)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("Connect %d: %v", i, err)
		}
	}

	// Every party sends its ID to every peer.
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				peer, err := nws[i].Peer(j)
				if err != nil {
					errs[i] = err
					return
				}
				err = peer.Conn().WriteFrame(uint64(i), []byte(fmt.Sprintf("%d", i)))
				if err != nil {
					errs[i] = err
					return
				}
				if err := peer.Conn().Flush(); err != nil {
					errs[i] = err
					return
				}
			}
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				peer, err := nws[i].Peer(j)
				if err != nil {
					errs[i] = err
					return
				}
				frame, err := peer.Conn().ReadFrame()
				if err != nil {
					errs[i] = err
					return
				}
				msg := string(frame.Data)
				if frame.Channel != uint64(j) || msg != fmt.Sprintf("%d", j) {
					errs[i] = fmt.Errorf("party %d: got %q on %d from %d",
						i, msg, frame.Channel, j)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("party %d: %v", i, err)
		}
	}
	if nws[0].Stats().Sum() == 0 {
		t.Errorf("no traffic recorded")
	}
}

func TestNetworkTimeout(t *testing.T) {
	nw, err := NewNetwork("127.0.0.1:0", 1)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	defer nw.Close()
	nw.RetryDelay = 10 * time.Millisecond

	// Peer 0 listens nowhere.
	err = nw.Connect([]string{"127.0.0.1:1", nw.Addr().String()},
		100*time.Millisecond)
	if err == nil {
		t.Fatalf("Connect succeeded without peers")
	}
}
