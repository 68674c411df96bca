package main

import (
	"io/ioutil"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"cmppsms/cmpp"
	"cmppsms/sms"
)

// Config is the application configuration.
type Config struct {
	Gateway struct {
		Address    string `yaml:"address"` // host:port of the CMPP gateway
		sms.Config `yaml:",inline"`
	} `yaml:"gateway"`
	DSN string `yaml:"dsn,omitempty"` // MySQL journal, empty disables it

	client *sms.Client
	gate   *Gate
	stop   chan struct{}
}

// ParseConfig parses the YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	config := new(Config)
	err := yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig loads and parses the configuration from a file.
func LoadConfig(filename string) (*Config, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// Start brings up the journal and the gateway client.
func (c *Config) Start() error {
	logEntry := logrus.StandardLogger().WithField("gateway", c.Gateway.Address)
	gate, err := NewGate(c.DSN, logEntry)
	if err != nil {
		return err
	}
	c.gate = gate
	transport := cmpp.NewConn(c.Gateway.Address, logEntry)
	c.client = sms.NewClient(c.Gateway.Config, transport, logEntry)
	c.client.OnMessageReceive = gate.MessageReceived
	c.client.OnMessageReport = gate.MessageReported
	c.client.OnMessageSent = gate.MessageSent
	c.client.Start()
	c.stop = make(chan struct{})
	go c.reportMetrics(logEntry)
	return nil
}

// reportMetrics logs a traffic summary once a minute.
func (c *Config) reportMetrics(logEntry *logrus.Entry) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m := c.client.Metrics
			logEntry.WithFields(logrus.Fields{
				"state":      c.client.Status().String(),
				"submits":    m.Submits.Count(),
				"responses":  m.Responses.Count(),
				"delivers":   m.Delivers.Count(),
				"reports":    m.Reports.Count(),
				"timeouts":   m.Timeouts.Count(),
				"reconnects": m.Reconnects.Count(),
			}).Info("Traffic")
		case <-c.stop:
			return
		}
	}
}

// Stop shuts the client and the journal down.
func (c *Config) Stop() {
	if c.stop != nil {
		close(c.stop)
	}
	if c.client != nil {
		c.client.Stop()
	}
	if c.gate != nil {
		c.gate.Close()
	}
}
