//go:build !linux

package device

// Open is not supported on this platform.
func Open(path string) (Device, error) {
	return nil, ErrUnsupported
}
