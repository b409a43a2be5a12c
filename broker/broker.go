// Package broker adapts the paho MQTT client to the dispatch engine
// (SPEC_FULL.md §4.9), grounded on the pico-cs gateway's wiring idiom
// (connect once, subscribe, publish-on-channel, handle via a single
// default handler) found in the wider example pack, since the teacher
// repo itself talks to NATS rather than MQTT.
package broker

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/handler"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
)

// DefaultReconnectInterval is the fixed retry interval after an
// unclean disconnect (§4.9).
const DefaultReconnectInterval = 5 * time.Second

var _ model.Publisher = (*Broker)(nil)

// Broker owns the paho client and the callbacks the lifecycle
// controller wires into the dispatch pipeline.
type Broker struct {
	opts              *mqtt.ClientOptions
	client            mqtt.Client
	filters           map[string]byte
	lwtTopic          string
	lwtAlive          string
	lwtDead           string
	reconnectInterval time.Duration
	log               logger.ILogger

	onMessage func(env *model.Envelope)
	onUnclean func(reason string, message string)
	stopped   bool
}

// New builds a Broker from the parsed [defaults] section. The caller
// must still call SubscribeFilters, OnMessage, and OnUncleanDisconnect
// before Connect.
func New(def *config.Defaults, log logger.ILogger) *Broker {
	opts := mqtt.NewClientOptions()
	scheme := def.Transport
	if scheme == "" {
		scheme = "tcp"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, def.Hostname, def.Port))
	if def.ClientID != "" {
		opts.SetClientID(def.ClientID)
	}
	if def.Username != "" {
		opts.SetUsername(def.Username)
	}
	if def.Password != "" {
		opts.SetPassword(def.Password)
	}
	opts.SetCleanSession(def.CleanSession)
	opts.SetAutoReconnect(false) // reconnects are driven explicitly, on a fixed interval (§4.9)

	if def.TLS {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: def.TLSInsecure})
	}

	b := &Broker{
		opts:              opts,
		filters:           map[string]byte{},
		reconnectInterval: DefaultReconnectInterval,
		log:               log,
	}

	if def.LWT != "" {
		b.lwtTopic = def.LWT
		b.lwtAlive = "1"
		b.lwtDead = "0"
		opts.SetBinaryWill(b.lwtTopic, []byte(b.lwtDead), 1, true)
	}

	opts.SetDefaultPublishHandler(b.handle)
	opts.SetOnConnectHandler(b.onConnect)
	opts.SetConnectionLostHandler(b.onConnectionLost)

	return b
}

// SubscribeFilters computes the unique subscription filters and their
// max declared QoS from the compiled handler table (§4.9).
func SubscribeFilters(table *handler.Table) map[string]byte {
	filters := map[string]byte{}
	for _, h := range table.Handlers {
		qos := byte(h.QoS)
		if existing, ok := filters[h.Filter]; !ok || qos > existing {
			filters[h.Filter] = qos
		}
	}
	return filters
}

// OnMessage registers the callback invoked for every delivered message.
func (b *Broker) OnMessage(fn func(env *model.Envelope)) {
	b.onMessage = fn
}

// OnUncleanDisconnect registers the callback invoked when the broker
// connection drops unexpectedly, receiving a synthesized (topic=reason
// code, message=text) pair for the failover handler (§4.9).
func (b *Broker) OnUncleanDisconnect(fn func(reason string, message string)) {
	b.onUnclean = fn
}

// Connect dials the broker and blocks for the connect result. Refused
// connection codes are logged as human-readable reasons per §4.9.
func (b *Broker) Connect(filters map[string]byte) error {
	b.filters = filters
	b.client = mqtt.NewClient(b.opts)

	token := b.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		b.log.Error("connect refused: %s", classifyConnectError(err))
		return err
	}
	return nil
}

func (b *Broker) onConnect(client mqtt.Client) {
	for filter, qos := range b.filters {
		if token := client.Subscribe(filter, qos, nil); token.Wait() && token.Error() != nil {
			b.log.Error("subscribe %q: %v", filter, token.Error())
		}
	}
	if b.lwtTopic != "" {
		if token := client.Publish(b.lwtTopic, 1, true, []byte(b.lwtAlive)); token.Wait() && token.Error() != nil {
			b.log.Error("publish LWT-alive: %v", token.Error())
		}
	}
	b.log.Info("connected to broker")
}

func (b *Broker) onConnectionLost(client mqtt.Client, err error) {
	if b.stopped {
		b.log.Info("broker disconnected cleanly")
		return
	}
	b.log.Error("broker connection lost: %v", err)
	if b.onUnclean != nil {
		b.onUnclean("3", err.Error())
	}
	go b.reconnectLoop()
}

func (b *Broker) reconnectLoop() {
	for !b.stopped {
		time.Sleep(b.reconnectInterval)
		if b.stopped {
			return
		}
		token := b.client.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			b.log.Error("reconnect failed: %s", classifyConnectError(err))
			continue
		}
		return
	}
}

func (b *Broker) handle(client mqtt.Client, msg mqtt.Message) {
	if b.onMessage == nil {
		return
	}
	b.onMessage(&model.Envelope{
		Topic:      msg.Topic(),
		RawPayload: msg.Payload(),
		Retained:   msg.Retained(),
	})
}

// Publish implements model.Publisher so sinks and cron targets can
// republish through the same connection.
func (b *Broker) Publish(topic string, qos int, retained bool, payload []byte) error {
	token := b.client.Publish(topic, byte(qos), retained, payload)
	token.Wait()
	return token.Error()
}

// Disconnect publishes LWT-dead and closes the connection cleanly,
// suppressing the reconnect loop that would otherwise fire.
func (b *Broker) Disconnect() {
	b.stopped = true
	if b.client == nil || !b.client.IsConnected() {
		return
	}
	if b.lwtTopic != "" {
		if token := b.client.Publish(b.lwtTopic, 1, true, []byte(b.lwtDead)); token.Wait() && token.Error() != nil {
			b.log.Error("publish LWT-dead: %v", token.Error())
		}
	}
	b.client.Disconnect(250)
}

// classifyConnectError maps paho's refusal text to the human-readable
// reasons for connack codes 1-5 (§4.9); anything unrecognized is an
// "unknown" error rather than a guessed code.
func classifyConnectError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Bad Protocol Version"):
		return "refused (1): unacceptable protocol version"
	case strings.Contains(msg, "Client Identifier Rejected"):
		return "refused (2): client identifier rejected"
	case strings.Contains(msg, "Server Unavailable"):
		return "refused (3): server unavailable"
	case strings.Contains(msg, "Bad Username or Password"):
		return "refused (4): bad username or password"
	case strings.Contains(msg, "Not Authorized"):
		return "refused (5): not authorized"
	default:
		return "unknown error: " + msg
	}
}
