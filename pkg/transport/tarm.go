package transport

import (
	"io"
	"net/url"

	"github.com/tarm/serial"
)

func init() {
	Register("tarm", OpenTarm)
}

// OpenTarm opens a serial device with github.com/tarm/serial.
func OpenTarm(u *url.URL) (io.ReadWriteCloser, error) {
	path, err := devicePath(u)
	if err != nil {
		return nil, err
	}
	baud, err := Baud(u)
	if err != nil {
		return nil, err
	}
	timeout, err := ReadTimeout(u)
	if err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        path,
		Baud:        baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return &eofAsIdle{port}, nil
}

// eofAsIdle reports an expired read timeout as an empty read. The termios
// driver surfaces it as io.EOF from the underlying file.
type eofAsIdle struct {
	io.ReadWriteCloser
}

func (p *eofAsIdle) Read(b []byte) (int, error) {
	n, err := p.ReadWriteCloser.Read(b)
	if err == io.EOF {
		err = nil
	}
	return n, err
}
