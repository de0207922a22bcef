package mqttpub

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NotCoffee418/emu2mqtt/pkg/config"
	"github.com/NotCoffee418/emu2mqtt/pkg/discovery"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sigurn/crc16"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnknownMetric  = errors.New("no sensor registered for metric")
	ErrPublishTimeout = errors.New("mqtt publish timed out")
)

var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

func newPublisher(c client, prefix string) *Publisher {
	if prefix == "" {
		prefix = discovery.DefaultPrefix
	}
	return &Publisher{
		client:  c,
		prefix:  prefix,
		device:  discovery.EMU2Device,
		timeout: publishTimeout,
	}
}

// Connect builds the paho client and connects in the background.
// Sensors are registered on every (re)connect.
func Connect(cfg *config.BridgeConfig) (*Publisher, error) {
	hostname, _ := os.Hostname()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(BrokerURL(cfg.MQTTHost, cfg.MQTTPort))
	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
		opts.SetPassword(cfg.MQTTPass)
	}
	opts.SetClientID(ClientID(hostname, cfg.SerialDevice))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	p := newPublisher(nil, cfg.DiscoveryPrefix)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Info("Connected to MQTT broker")
		if err := p.RegisterSensors(); err != nil {
			log.Warnf("Failed to register sensors: %v", err)
		}
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.Warnf("Connection to MQTT broker lost: %v", err)
	})

	c := mqtt.NewClient(opts)
	p.client = c

	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warn("Could not connect to MQTT initially, will retry in background")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	return p, nil
}

// BrokerURL accepts a bare host or a full scheme://host:port URL.
func BrokerURL(host string, port int) string {
	if strings.Contains(host, "://") {
		return host
	}
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// ClientID is stable per host and device so a restart resumes the same session.
func ClientID(hostname, device string) string {
	sum := crc16.Checksum([]byte(hostname+"|"+device), crcTable)
	return fmt.Sprintf("emu2mqtt-%04x", sum)
}

// RegisterSensors publishes the retained discovery config for every sensor.
func (p *Publisher) RegisterSensors() error {
	var errs []error
	for _, binding := range discovery.Sensors {
		payload, err := discovery.ConfigPayload(p.device, binding.Sensor)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		topic := discovery.ConfigTopic(p.prefix, binding.Sensor)
		if err := p.wait(p.client.Publish(topic, 1, true, payload)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", topic, err))
			continue
		}
		log.Infof("Registered sensor %s on %s", binding.Sensor.Name, topic)
	}
	return errors.Join(errs...)
}

// Publish sets the state of the sensor bound to metric. It does not wait
// for delivery; a failure that is not known immediately is logged later.
func (p *Publisher) Publish(metric string, value float64) error {
	sensor, ok := discovery.SensorFor(metric)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	topic := discovery.StateTopic(p.device, sensor)
	payload := strconv.FormatFloat(value, 'f', -1, 64)

	log.Debugf("MQTT PUB %s: %s", topic, payload)
	token := p.client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	default:
	}
	go p.watch(topic, token)
	return nil
}

func (p *Publisher) Disconnect() {
	if p.client != nil {
		p.client.Disconnect(quiesceMillis)
		log.Println("Disconnected from MQTT broker")
	}
}

// watch logs the outcome of a publish still in flight.
func (p *Publisher) watch(topic string, token mqtt.Token) {
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			log.Warnf("Failed to publish %s: %v", topic, err)
		}
	case <-time.After(p.timeout):
		log.Warnf("Publish to %s still pending after %v, broker unreachable?", topic, p.timeout)
	}
}

func (p *Publisher) wait(token mqtt.Token) error {
	if !token.WaitTimeout(p.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}
