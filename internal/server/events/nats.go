package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"chessclock/internal/server/clock"
)

type NATSConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "chessclock.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Publisher is the subset of *nats.Conn the NATS observer needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSObserver publishes every transition except ticks as JSON to
// <prefix>.<clockID>.<kind>
type NATSObserver struct {
	pub    Publisher
	prefix string
	conn   *nats.Conn // nil when constructed over a bare Publisher
}

// ConnectNATS dials the server and returns an observer that owns the connection
func ConnectNATS(cfg NATSConfig) (*NATSObserver, error) {
	opts := []nats.Option{
		nats.Name("chessclock"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	o := NewNATSObserver(nc, cfg.SubjectPrefix)
	o.conn = nc
	return o, nil
}

// NewNATSObserver publishes through pub without owning it
func NewNATSObserver(pub Publisher, prefix string) *NATSObserver {
	if prefix == "" {
		prefix = DefaultNATSConfig().SubjectPrefix
	}
	return &NATSObserver{pub: pub, prefix: prefix}
}

// Subject returns the subject an event is published on
func (o *NATSObserver) Subject(ev Event) string {
	return fmt.Sprintf("%s.%s.%s", o.prefix, ev.ClockID, ev.Kind)
}

func (o *NATSObserver) Notify(ev Event) {
	if ev.Kind == clock.TransitionTicked {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("clock_id", ev.ClockID).Msg("failed to marshal clock event")
		return
	}

	// Core NATS publish only buffers, it does not wait for the server
	if err := o.pub.Publish(o.Subject(ev), data); err != nil {
		log.Warn().Err(err).Str("subject", o.Subject(ev)).Msg("failed to publish clock event")
	}
}

// Close drains the owned connection, if any
func (o *NATSObserver) Close() error {
	if o.conn == nil {
		return nil
	}
	return o.conn.Drain()
}
