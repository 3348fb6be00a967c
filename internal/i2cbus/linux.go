//go:build linux

package i2cbus

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is the i2c-dev ioctl that selects the target address.
const i2cSlave = 0x0703

// Dev is an open /dev/i2c-N adapter. Writes and reads are issued as
// separate transfers (no repeated start), which every device used here accepts.
type Dev struct {
	mu   sync.Mutex
	fd   int
	addr uint16
	path string
}

// Open opens /dev/i2c-<bus>.
func Open(bus int) (*Dev, error) {
	path := fmt.Sprintf("/dev/i2c-%d", bus)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Dev{fd: fd, path: path, addr: 0xFFFF}, nil
}

// Tx writes w then reads len(r) bytes from the device at addr.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if addr != d.addr {
		if err := unix.IoctlSetInt(d.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("%s: select %#02x: %w", d.path, addr, err)
		}
		d.addr = addr
	}
	if len(w) > 0 {
		n, err := unix.Write(d.fd, w)
		if err != nil {
			return fmt.Errorf("%s: write %#02x: %w", d.path, addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("%s: short write to %#02x: %d of %d", d.path, addr, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(d.fd, r)
		if err != nil {
			return fmt.Errorf("%s: read %#02x: %w", d.path, addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("%s: short read from %#02x: %d of %d", d.path, addr, n, len(r))
		}
	}
	return nil
}

// Close releases the adapter.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return unix.Close(d.fd)
}
