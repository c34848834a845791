package messaging

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher publishes events with paho. Topics are relative to the
// configured prefix.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
	qos    byte

	mu        sync.RWMutex
	connected bool
}

// NewMQTTPublisher builds the client and connects with retries
func NewMQTTPublisher(cfg *config.Config) (*MQTTPublisher, error) {
	p := &MQTTPublisher{
		prefix: strings.TrimSuffix(cfg.MQTTTopicPrefix, "/"),
		qos:    byte(cfg.MQTTQoS),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	// unique id so several instances do not kick each other off
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	if strings.HasPrefix(cfg.MQTTBrokerURL, "ssl://") || strings.HasPrefix(cfg.MQTTBrokerURL, "tls://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warning("[MQTT] connection lost: %v", err)
		p.setConnected(false)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("[MQTT] connected to %s", cfg.MQTTBrokerURL)
		p.setConnected(true)
	})

	p.client = mqtt.NewClient(opts)
	if err := p.connect(3); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MQTTPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *MQTTPublisher) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.client.IsConnected()
}

// connect retries with exponential backoff: 1s, 2s, 4s...
func (p *MQTTPublisher) connect(maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		token := p.client.Connect()
		if token.WaitTimeout(publishTimeout) && token.Error() == nil {
			p.setConnected(true)
			return nil
		}
		err = token.Error()
		backoff := time.Duration(1<<uint(i)) * time.Second
		logger.Warning("[MQTT] connect attempt %d/%d failed: %v, retrying in %v", i+1, maxRetries, err, backoff)
		time.Sleep(backoff)
	}
	return fmt.Errorf("mqtt connect failed after %d attempts: %v", maxRetries, err)
}

// Topic joins the prefix and a relative topic
func (p *MQTTPublisher) Topic(rel string) string {
	if p.prefix == "" {
		return rel
	}
	return p.prefix + "/" + strings.TrimPrefix(rel, "/")
}

// Publish serializes the event and waits for the broker to acknowledge
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, event Event) error {
	if !p.isConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.Topic(topic), p.qos, false, data)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
}

// Close disconnects, giving in-flight messages 250ms
func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// NewPublisher returns an MQTT publisher when a broker is configured and a
// no-op publisher otherwise. A broker that cannot be reached is logged and
// replaced by the no-op publisher; events are best effort.
func NewPublisher(cfg *config.Config) Publisher {
	if cfg.MQTTBrokerURL == "" {
		logger.Info("[MQTT] no broker configured, domain events are not published")
		return NoopPublisher{}
	}
	p, err := NewMQTTPublisher(cfg)
	if err != nil {
		logger.Error("[MQTT] %v, domain events are not published", err)
		return NoopPublisher{}
	}
	return p
}

// UserTopic is the notification topic of one user
func UserTopic(userID uint) string {
	return fmt.Sprintf("users/%d/notifications", userID)
}

// EventTopic is the topic of a domain event type, e.g. events/assessment.verified
func EventTopic(eventType string) string {
	return "events/" + eventType
}
