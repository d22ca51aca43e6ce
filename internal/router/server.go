package router

import (
	"errors"
	"net"
)

// Serve is the server loop of spec §4.4: it accepts connections until the
// listener closes, spawning an independent handler for each. It does not
// track handler lifetimes; a failing handler never brings down the loop.
func (n *Node) Serve() error {
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			n.Log.Warn("accept failed", "err", err)
			continue
		}
		go n.handleConnection(conn)
	}
}
