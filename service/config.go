// Package service binds the rpc and broker packages into the worker
// lifecycle a handler process runs: opening a consumer connection and a
// reply connection for each of the shared topic, the per-host topic and
// the fanout (six broker connections in all), attaching consumers to
// them, and scheduling the periodic report_state and
// periodic_tasks timers. WsgiService is the sibling runtime for
// processes that front one or more HTTP applications instead.
package service

import "time"

// Config carries every setting a launcher needs to build a Service or
// WsgiService, loaded through go.bryk.io/compute/cli/konf (file -> env ->
// flag override order) by the cmd/computed launcher.
type Config struct {
	// Host is this node's identifier, used to build the per-host topic
	// "<topic>.<host>".
	Host string `json:"host" yaml:"host"`

	// Binary is the service's reported process name.
	Binary string `json:"binary" yaml:"binary"`

	// Topic is the shared topic this service's handler listens on.
	Topic string `json:"topic" yaml:"topic"`

	// ControlExchange is the topic exchange every Service and caller
	// publishes/consumes through.
	ControlExchange string `json:"control_exchange" yaml:"control_exchange"`

	// ReportInterval is the period between report_state invocations.
	// Zero selects the default of 10s; a negative value disables state
	// reporting.
	ReportInterval time.Duration `json:"report_interval" yaml:"report_interval"`

	// PeriodicInterval is the period between periodic_tasks invocations.
	// Zero selects the default of 60s; a negative value disables periodic
	// tasks.
	PeriodicInterval time.Duration `json:"periodic_interval" yaml:"periodic_interval"`

	// FakeRabbit selects the in-process broker backend instead of
	// dialing a live AMQP091 server.
	FakeRabbit bool `json:"fake_rabbit" yaml:"fake_rabbit"`

	// RabbitHost, RabbitPort, RabbitUser, RabbitPassword and
	// RabbitVirtualHost describe the live broker endpoint; ignored when
	// FakeRabbit is set.
	RabbitHost        string `json:"rabbit_host" yaml:"rabbit_host"`
	RabbitPort        int    `json:"rabbit_port" yaml:"rabbit_port"`
	RabbitUser        string `json:"rabbit_userid" yaml:"rabbit_userid"`
	RabbitPassword    string `json:"rabbit_password" yaml:"rabbit_password"`
	RabbitVirtualHost string `json:"rabbit_virtual_host" yaml:"rabbit_virtual_host"`

	// RabbitRetryInterval and RabbitMaxRetries bound the initial
	// connection attempts of every broker.Connection a Service opens.
	RabbitRetryInterval time.Duration `json:"rabbit_retry_interval" yaml:"rabbit_retry_interval"`
	RabbitMaxRetries    int           `json:"rabbit_max_retries" yaml:"rabbit_max_retries"`

	// RPCThreadPoolSize bounds the worker pool every AdapterConsumer
	// dispatches handler invocations on.
	RPCThreadPoolSize int `json:"rpc_thread_pool_size" yaml:"rpc_thread_pool_size"`
}

// defaults mirrors the flag defaults declared alongside the original
// rpc.py/service.py FLAGS.DEFINE_* calls.
func (c *Config) defaults() {
	if c.Binary == "" {
		c.Binary = "computed"
	}
	if c.ControlExchange == "" {
		c.ControlExchange = "compute"
	}
	if c.ReportInterval == 0 {
		c.ReportInterval = 10 * time.Second
	}
	if c.PeriodicInterval == 0 {
		c.PeriodicInterval = 60 * time.Second
	}
	if c.RabbitHost == "" {
		c.RabbitHost = "localhost"
	}
	if c.RabbitPort == 0 {
		c.RabbitPort = 5672
	}
	if c.RabbitUser == "" {
		c.RabbitUser = "guest"
	}
	if c.RabbitPassword == "" {
		c.RabbitPassword = "guest"
	}
	if c.RabbitVirtualHost == "" {
		c.RabbitVirtualHost = "/"
	}
	if c.RabbitRetryInterval == 0 {
		c.RabbitRetryInterval = 10 * time.Second
	}
	if c.RabbitMaxRetries == 0 {
		c.RabbitMaxRetries = 12
	}
	if c.RPCThreadPoolSize == 0 {
		c.RPCThreadPoolSize = 1024
	}
}

// WsgiAppConfig describes a single HTTP application WsgiService should
// host: the address/port pair it listens on, per "<api>_listen" /
// "<api>_listen_port".
type WsgiAppConfig struct {
	Name   string `json:"name" yaml:"name"`
	Listen string `json:"listen" yaml:"listen"`
	Port   int    `json:"listen_port" yaml:"listen_port"`
}
