package broker

import (
	"time"

	xlog "go.bryk.io/compute/log"
	"gopkg.in/yaml.v3"
)

func ExampleWithLogger() {
	// Set the logger instance to use
	WithLogger(xlog.WithZero(xlog.ZeroOptions{
		PrettyPrint: true,
		ErrorField:  "error",
	}))
}

func ExampleWithPrefetch() {
	// Allow 5 in-flight message and a maximum of 512 bytes
	// in server-client buffers.
	WithPrefetch(5, 512)
}

func ExampleWithName() {
	// If not set, a random name is generated.
	WithName("custom-application-name")
}

func ExampleWithTopology() {
	// Allows loading an existing topology declaration, for example
	// from a YAML or JSON file.
	var sampleTopology = `
exchanges:
- name: sample.tasks
  kind: direct
  durable: true
- name: sample.notifications
  kind: fanout
  durable: true
queues:
- name: tasks
  durable: true
  arguments:
    - x-message-ttl: 10000
- name: notifications
  durable: true
bindings:
- exchange: sample.notifications
  queue: notifications
- exchange: sample.tasks
  queue: tasks
  routing_key:
  - foo
  - bar
`
	tp := Topology{}
	_ = yaml.Unmarshal([]byte(sampleTopology), &tp)
	WithTopology(tp)
}

func ExampleWithFakeBackend() {
	// Replace the real AMQP091 driver with an in-process broker,
	// useful for tests that don't need a live server.
	WithFakeBackend()
}

func ExampleWithRetry() {
	// Give up and invoke the fatal handler after 5 failed attempts to
	// connect, spaced 3 seconds apart.
	WithRetry(3*time.Second, 5)
}
