package transport

import (
	"io"
	"net/url"

	"go.bug.st/serial"
)

func init() {
	Register("serial", OpenSerial)
}

// OpenSerial opens a serial device with go.bug.st/serial, which supports
// the non-standard CRSF baud rate on Linux.
func OpenSerial(u *url.URL) (io.ReadWriteCloser, error) {
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
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}
