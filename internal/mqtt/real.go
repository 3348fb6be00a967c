package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	outboxCapacity = 256
	publishTimeout = 5 * time.Second
)

// ClientID returns a broker client ID unique to this run of app.
func ClientID(app string) string {
	return "picodemos-" + app + "-" + uuid.NewString()[:8]
}

// RealPublisher publishes to an actual MQTT broker. Publishes made while
// the connection is down are queued and replayed on (re)connect.
type RealPublisher struct {
	client paho.Client
	app    string
	now    func() time.Time

	mu        sync.Mutex
	pending   *outbox
	connected bool // set after the first successful connect
}

func newPublisher(app string) *RealPublisher {
	return &RealPublisher{
		app:     app,
		now:     time.Now,
		pending: newOutbox(outboxCapacity),
	}
}

// NewRealPublisher starts connecting to broker in the background and
// returns immediately. The broker publishes a retained OFFLINE event on
// the system topic if the process vanishes without a clean disconnect.
func NewRealPublisher(broker, app string) (*RealPublisher, error) {
	p := newPublisher(app)

	will, err := FormatSystemPayload(WillEvent(p.now()))
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID(app)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(SystemTopic(app), will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p, nil
}

// Publish sends an app event to the broker.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	if err := p.send(queuedMsg{topic: EventsTopic(p.app), payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) so lifecycle transitions are not lost
	msg := queuedMsg{topic: SystemTopic(p.app), payload: payload, qos: 1, retained: event.Retained}
	if err := p.send(msg); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) send(msg queuedMsg) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.pending.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.write(msg)
}

func (p *RealPublisher) write(msg queuedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout")
	}
	return token.Error()
}

// onConnect replays queued messages. On a reconnect it also publishes a
// retained RECONNECTED event so the broker's OFFLINE will is replaced.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	queued := p.pending.drain()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	if reconnect {
		ev := SystemEvent{Timestamp: p.now(), Event: "RECONNECTED", Retained: true}
		payload, _ := FormatSystemPayload(ev)
		if err := p.write(queuedMsg{topic: SystemTopic(p.app), payload: payload, qos: 1, retained: true}); err != nil {
			log.Printf("mqtt: reconnected event: %v", err)
		}
	}

	if len(queued) > 0 {
		log.Printf("mqtt: replaying %d queued messages", len(queued))
	}
	for _, m := range queued {
		if err := p.write(m); err != nil {
			log.Printf("mqtt: replay to %s: %v", m.topic, err)
		}
	}
}

// Queued returns the number of messages waiting for a connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.len()
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
