// Package telemetry publishes clock status readings to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/rtcsync/rtcsync/clocksync"
	"github.com/rtcsync/rtcsync/config"
)

const publishTimeout = 5 * time.Second

// Source produces the reading to publish.
type Source interface {
	Status() (clocksync.Status, error)
}

type Publisher struct {
	client mqtt.Client
	topic  string
	qos    byte
	log    logrus.FieldLogger
}

// Dial connects to the broker named in cfg.
func Dial(cfg config.MQTTConfig, log logrus.FieldLogger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("telemetry: connect %s: timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", cfg.Broker, err)
	}
	log.WithField("broker", cfg.Broker).Info("mqtt connected")
	return &Publisher{client: client, topic: cfg.Topic, qos: cfg.QoS, log: log}, nil
}

// Publish sends st as JSON and waits for the broker to accept it.
func (p *Publisher) Publish(st clocksync.Status) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	tok := p.client.Publish(p.topic, p.qos, false, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("telemetry: publish %s: timed out", p.topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("telemetry: publish %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// Run publishes a reading immediately and then every interval until ctx is
// done. A failed reading or publish is logged and the loop carries on.
func Run(ctx context.Context, src Source, p *Publisher, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		p.publishOnce(src)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Publisher) publishOnce(src Source) {
	st, err := src.Status()
	if err != nil {
		p.log.WithError(err).Warn("status unavailable, nothing published")
		return
	}
	if err := p.Publish(st); err != nil {
		p.log.WithError(err).Warn("publish failed")
		return
	}
	p.log.WithFields(logrus.Fields{
		"topic":         p.topic,
		"drift_seconds": st.DriftSeconds,
		"temperature_c": st.TemperatureC,
	}).Debug("status published")
}
