package client

import (
	"net"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// DialGUI connects to the GUI at host:port over TCP, setting SO_REUSEADDR
// on the socket before connecting (so a client that just exited can
// rebind the same ephemeral port immediately) and TCP_NODELAY once
// connected, since the GUI protocol is a stream of small, latency
// sensitive text lines rather than a bulk transfer.
func DialGUI(host string, port int) (*net.TCPConn, error) {
	d := net.Dialer{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := d.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	tcpConn := conn.(*net.TCPConn)
	if err := tcpConn.SetNoDelay(true); err != nil {
		tcpConn.Close()
		return nil, err
	}
	return tcpConn, nil
}
