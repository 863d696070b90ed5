package broker

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

func ExampleTopology() {
	// To simplify storage and sharing, the topology for an application
	// can be managed either in YAML or JSON format.
	var inYAML = `
exchanges:
- name: compute
  kind: topic
  durable: false
- name: workers_fanout
  kind: fanout
  durable: false
queues:
- name: workers
- name: workers.host-1
bindings:
- exchange: compute
  queue: workers
  routing_key:
  - workers
- exchange: compute
  queue: workers.host-1
  routing_key:
  - workers.host-1
`
	tp := Topology{}
	err := yaml.Unmarshal([]byte(inYAML), &tp)
	if err != nil {
		panic(err)
	}
}

func ExampleQueueOptions_AsArguments() {
	ttl, _ := time.ParseDuration("15s")
	exp, _ := time.ParseDuration("1h")
	opts := QueueOptions{
		MessageTTL:     &ttl,
		Expiration:     &exp,
		MaxLength:      500,
		MaxLengthBytes: 1024 * 100,
		DLExchange:     "compute.dead",
		MaxPriority:    4,
		LazyMode:       true,
		Overflow:       OverflowRejectDL,
	}
	fmt.Printf("%+v", opts.AsArguments())
}
