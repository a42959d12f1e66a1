package transport

import (
	"io"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/websocket"
)

func init() {
	Register("tcp", OpenTCP)
	Register("ws", OpenWebSocket)
	Register("wss", OpenWebSocket)
}

// deadlineConn arms a read deadline before every Read. An expired deadline
// is a timeout error which the engine treats as no data.
type deadlineConn struct {
	conn interface {
		io.ReadWriteCloser
		SetReadDeadline(time.Time) error
	}
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *deadlineConn) Close() error {
	return c.conn.Close()
}

// OpenTCP dials a raw TCP byte stream.
func OpenTCP(u *url.URL) (io.ReadWriteCloser, error) {
	timeout, err := ReadTimeout(u)
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	return &deadlineConn{conn: conn, timeout: timeout}, nil
}

// OpenWebSocket dials a WebSocket endpoint. Every message carries a chunk
// of the byte stream.
func OpenWebSocket(u *url.URL) (io.ReadWriteCloser, error) {
	timeout, err := ReadTimeout(u)
	if err != nil {
		return nil, err
	}
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	q := u.Query()
	q.Del("read-timeout")
	target := *u
	target.RawQuery = q.Encode()
	conn, err := websocket.Dial(target.String(), "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return &deadlineConn{conn: conn, timeout: timeout}, nil
}
