// Package transport opens the byte streams carrying CRSF by URL.
//
// Supported schemes:
//
//	serial:///dev/ttyAMA0?baud=420000   go.bug.st/serial
//	tarm:///dev/ttyUSB0?baud=420000     github.com/tarm/serial
//	tcp://host:port                     raw TCP stream (SITL, ser2net)
//	ws://host:port/path                 WebSocket binary frames
//
// All schemes accept read-timeout (a time.Duration) which bounds a single
// Read, so a poll loop never blocks for long on an idle link.
package transport

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/robotalks/crsf.go/pkg/crsf"
)

// DefaultReadTimeout bounds a single Read when read-timeout is not given.
const DefaultReadTimeout = 5 * time.Millisecond

// Opener opens a stream from a parsed URL.
type Opener func(u *url.URL) (io.ReadWriteCloser, error)

var (
	openersLock sync.RWMutex
	openers     = make(map[string]Opener)
)

// Register registers an Opener for the URL scheme, replacing any existing one.
func Register(scheme string, opener Opener) {
	openersLock.Lock()
	defer openersLock.Unlock()
	openers[scheme] = opener
}

// Schemes lists registered schemes.
func Schemes() []string {
	openersLock.RLock()
	schemes := make([]string, 0, len(openers))
	for scheme := range openers {
		schemes = append(schemes, scheme)
	}
	openersLock.RUnlock()
	sort.Strings(schemes)
	return schemes
}

// Open opens the stream at rawURL. A URL without scheme is a serial device path.
func Open(rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid port URL %q: %w", rawURL, err)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "serial"
	}
	openersLock.RLock()
	opener := openers[scheme]
	openersLock.RUnlock()
	if opener == nil {
		return nil, fmt.Errorf("unknown port URL scheme: %q", scheme)
	}
	rwc, err := opener(u)
	if err != nil {
		return nil, &crsf.TransportError{Op: "open " + rawURL, Err: err}
	}
	return rwc, nil
}

// Baud reads the baud query parameter, crsf.BaudRate by default.
func Baud(u *url.URL) (int, error) {
	val := u.Query().Get("baud")
	if val == "" {
		return crsf.BaudRate, nil
	}
	baud, err := strconv.Atoi(val)
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("invalid baud %q", val)
	}
	return baud, nil
}

// ReadTimeout reads the read-timeout query parameter.
func ReadTimeout(u *url.URL) (time.Duration, error) {
	val := u.Query().Get("read-timeout")
	if val == "" {
		return DefaultReadTimeout, nil
	}
	timeout, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid read-timeout %q: %w", val, err)
	}
	return timeout, nil
}

func devicePath(u *url.URL) (string, error) {
	path := u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	if u.Host != "" {
		path = u.Host + path
	}
	if path == "" {
		return "", fmt.Errorf("missing device path")
	}
	return path, nil
}
