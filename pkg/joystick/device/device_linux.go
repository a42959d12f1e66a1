//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"syscall"
	"unsafe"
)

const (
	iocGAXES    uint = 0x80016a11
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80ff6a13

	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
	evINIT uint8 = 0x80

	eventSize = 8
)

type device struct {
	file        *os.File
	path        string
	name        string
	axisCount   uint8
	buttonCount uint8
	buf         [eventSize]byte
}

// Open opens the joystick at path and queries its capabilities.
func Open(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, path: path}
	var name [256]byte
	for _, q := range []struct {
		req uint
		ptr unsafe.Pointer
	}{
		{iocGAXES, unsafe.Pointer(&d.axisCount)},
		{iocGBUTTONS, unsafe.Pointer(&d.buttonCount)},
		{iocGNAME, unsafe.Pointer(&name)},
	} {
		if errno := d.ioctl(q.req, q.ptr); errno != 0 {
			f.Close()
			return nil, &os.PathError{Op: "ioctl", Path: path, Err: errno}
		}
	}
	if pos := bytes.IndexByte(name[:], 0); pos >= 0 {
		d.name = string(name[:pos])
	} else {
		d.name = string(name[:])
	}
	return d, nil
}

func (d *device) Close() error     { return d.file.Close() }
func (d *device) Path() string     { return d.path }
func (d *device) Name() string     { return d.name }
func (d *device) AxisCount() int   { return int(d.axisCount) }
func (d *device) ButtonCount() int { return int(d.buttonCount) }

// ReadEvent implements Device. Events other than axis or button are
// skipped.
func (d *device) ReadEvent() (Event, error) {
	for {
		if _, err := io.ReadFull(d.file, d.buf[:]); err != nil {
			return nil, err
		}
		if ev := decodeEvent(d.buf[:]); ev != nil {
			return ev, nil
		}
	}
}

// decodeEvent decodes struct js_event: u32 time, s16 value, u8 type,
// u8 number.
func decodeEvent(b []byte) Event {
	value := int16(binary.LittleEndian.Uint16(b[4:]))
	typ, number := b[6], int(b[7])
	init := typ&evINIT != 0
	switch typ &^ evINIT {
	case evAXIS:
		return Axis{Number: number, Pos: int(value), Init: init}
	case evBTN:
		return Button{Number: number, Down: value != 0, Init: init}
	}
	return nil
}

func (d *device) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, d.file.Fd(), uintptr(req), uintptr(ptr))
	return errno
}
