package location

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/jengzang/trackheat/internal/logging"
)

// MQTTConfig configures MQTTSource.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Topic          string
	QoS            byte
	MaxFixAge      time.Duration
	ConnectTimeout time.Duration
}

// fixMessage is the payload published by a device on the fix topic.
type fixMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"` // unix seconds
}

// MQTTSource serves the newest fix published on an MQTT topic.
type MQTTSource struct {
	client    mqtt.Client
	topic     string
	qos       byte
	maxFixAge time.Duration
	buf       *fixBuffer
	log       zerolog.Logger
}

// NewMQTTSource connects to the broker and subscribes to cfg.Topic. The
// subscription is renewed on every reconnect.
func NewMQTTSource(cfg MQTTConfig) (*MQTTSource, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt: broker and topic are required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	s := newMQTTSource(cfg)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(func(c mqtt.Client) {
			if err := s.subscribe(c); err != nil {
				s.log.Error().Err(err).Str("topic", s.topic).Msg("subscribe failed")
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.Warn().Err(err).Msg("connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect: timed out after %s", cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	s.client = client
	return s, nil
}

func newMQTTSource(cfg MQTTConfig) *MQTTSource {
	return &MQTTSource{
		topic:     cfg.Topic,
		qos:       cfg.QoS,
		maxFixAge: cfg.MaxFixAge,
		buf:       newFixBuffer(),
		log:       logging.Component("mqtt"),
	}
}

func (s *MQTTSource) subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.topic, s.qos, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw fixMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid fix message")
		return
	}

	fix := Fix{
		Latitude:       raw.Latitude,
		Longitude:      raw.Longitude,
		AccuracyMeters: raw.Accuracy,
	}
	if raw.Timestamp > 0 {
		fix.Timestamp = time.Unix(raw.Timestamp, 0).UTC()
	}
	if err := ValidateFix(fix); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("fix rejected")
		return
	}
	s.buf.offer(fix)
}

// RequestFix returns the latest fix if it is fresher than MaxFixAge, otherwise
// waits for the next message until ctx expires.
func (s *MQTTSource) RequestFix(ctx context.Context, _ Accuracy) (*Fix, error) {
	return s.buf.next(ctx, s.maxFixAge, nil)
}

// CheckAvailability implements Checker
func (s *MQTTSource) CheckAvailability(_ context.Context) error {
	if s.client == nil || !s.client.IsConnectionOpen() {
		return fmt.Errorf("mqtt broker: %w", ErrUnavailable)
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() error {
	if s.client != nil {
		s.client.Disconnect(250)
	}
	return nil
}
