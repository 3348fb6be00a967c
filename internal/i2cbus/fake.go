package i2cbus

import (
	"errors"
	"sync"
)

// ErrNoAck is returned by FakeBus for addresses with no device.
var ErrNoAck = errors.New("i2c: no ack")

// Transfer is one recorded FakeBus transaction.
type Transfer struct {
	Addr  uint16
	Write []byte
	Read  int
}

// FakeBus records transactions and answers reads from scripted responses.
type FakeBus struct {
	mu sync.Mutex

	// Present lists addresses that acknowledge. Others return ErrNoAck.
	Present map[uint16]bool

	// Responses are consumed in order per address to fill reads.
	// When exhausted the last response repeats.
	Responses map[uint16][][]byte

	// Transfers records every successful transaction.
	Transfers []Transfer

	// Err, if set, is returned for every transaction.
	Err error
}

// NewFakeBus creates a bus with devices at the given addresses.
func NewFakeBus(addrs ...uint16) *FakeBus {
	b := &FakeBus{
		Present:   make(map[uint16]bool),
		Responses: make(map[uint16][][]byte),
	}
	for _, a := range addrs {
		b.Present[a] = true
	}
	return b
}

// Respond queues a read response for addr.
func (b *FakeBus) Respond(addr uint16, data ...byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Responses[addr] = append(b.Responses[addr], data)
}

// Tx implements drivers.I2C.
func (b *FakeBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}
	if !b.Present[addr] {
		return ErrNoAck
	}
	if len(r) > 0 {
		queue := b.Responses[addr]
		if len(queue) > 0 {
			copy(r, queue[0])
			if len(queue) > 1 {
				b.Responses[addr] = queue[1:]
			}
		}
	}
	b.Transfers = append(b.Transfers, Transfer{Addr: addr, Write: append([]byte(nil), w...), Read: len(r)})
	return nil
}

// Writes returns the write payloads sent to addr, in order.
func (b *FakeBus) Writes(addr uint16) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out [][]byte
	for _, tr := range b.Transfers {
		if tr.Addr == addr && len(tr.Write) > 0 {
			out = append(out, tr.Write)
		}
	}
	return out
}
