package mqtt

import "log"

// queuedMsg is a serialized publish waiting for the broker to come back.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO of publishes made while disconnected.
// When full, the oldest message is dropped. Not safe for concurrent use.
type outbox struct {
	msgs    []queuedMsg
	head    int // next write position
	count   int
	dropped int // messages lost since the last drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{msgs: make([]queuedMsg, capacity)}
}

func (o *outbox) push(msg queuedMsg) {
	size := len(o.msgs)
	if o.count == size {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", size)
		}
		o.dropped++
		o.msgs[o.head] = msg
		o.head = (o.head + 1) % size
		return
	}
	o.msgs[o.head] = msg
	o.head = (o.head + 1) % size
	o.count++
}

// drain returns queued messages oldest first and empties the outbox.
func (o *outbox) drain() []queuedMsg {
	if o.count == 0 {
		return nil
	}
	size := len(o.msgs)
	out := make([]queuedMsg, o.count)
	start := (o.head - o.count + size) % size
	for i := range out {
		out[i] = o.msgs[(start+i)%size]
	}
	if o.dropped > 0 {
		log.Printf("mqtt: %d queued messages were dropped while offline", o.dropped)
	}
	o.head, o.count, o.dropped = 0, 0, 0
	return out
}

func (o *outbox) len() int {
	return o.count
}
