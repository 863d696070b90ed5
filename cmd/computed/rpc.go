package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.bryk.io/compute/broker"
	"go.bryk.io/compute/cli"
	"go.bryk.io/compute/cli/konf"
	"go.bryk.io/compute/reqcontext"
	"go.bryk.io/compute/rpc"
	"go.bryk.io/compute/service"
)

// rpcSendParams cover the broker endpoint settings a standalone "rpc
// send" invocation needs; it does not start a Service, so none of the
// worker-lifecycle settings apply.
var rpcSendParams = []cli.Param{
	{Name: "control_exchange", Usage: "topic exchange to publish on", ByDefault: "compute"},
	{Name: "fake_rabbit", Usage: "use the in-process broker instead of dialing a live server", ByDefault: false},
	{Name: "rabbit_host", Usage: "AMQP091 broker host", ByDefault: "localhost"},
	{Name: "rabbit_port", Usage: "AMQP091 broker port", ByDefault: 5672},
	{Name: "rabbit_userid", Usage: "AMQP091 broker user", ByDefault: "guest"},
	{Name: "rabbit_password", Usage: "AMQP091 broker password", ByDefault: "guest"},
	{Name: "rabbit_virtual_host", Usage: "AMQP091 broker virtual host", ByDefault: "/"},
	{Name: "rabbit_retry_interval", Usage: "seconds between initial connection attempts", ByDefault: 10},
	{Name: "rabbit_max_retries", Usage: "initial connection attempt ceiling, 0 retries forever", ByDefault: 12},
	{Name: "timeout", Usage: "seconds to wait for a reply, 0 blocks forever", ByDefault: 30},
}

func rpcCmd() *cobra.Command {
	rpcRoot := &cobra.Command{
		Use:   "rpc",
		Short: "Interact with a running compute service worker",
	}

	send := &cobra.Command{
		Use:   "send <topic> <json>",
		Short: "Send a call message for testing, using a JSON object with method/args fields",
		Args:  cobra.ExactArgs(2),
		RunE:  rpcSendHandler,
	}
	if err := cli.SetupCommandParams(send, rpcSendParams); err != nil {
		panic(err)
	}

	rpcRoot.AddCommand(send)
	return rpcRoot
}

func rpcSendHandler(cmd *cobra.Command, args []string) error {
	opts := []konf.Option{
		konf.WithFileLocations(konf.DefaultLocations("computed", "config.yaml")),
		konf.WithEnv("computed"),
		konf.WithPflags(cmd.Flags()),
	}
	config, err := konf.Setup(opts...)
	if err != nil {
		return err
	}

	raw := rawConfig{}
	if err := config.Unmarshal("", &raw); err != nil {
		return err
	}
	cfg := raw.toServiceConfig()
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(args[1]), &body); err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}
	env := rpc.Envelope{Args: rpc.Args{}}
	if method, ok := body["method"].(string); ok {
		env.Method = method
	}
	if a, ok := body["args"].(map[string]interface{}); ok {
		env.Args = a
	}

	mgr := broker.NewManager(dialAddr(cfg), dialOptions(cfg)...)

	ctx := context.Background()
	if timeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSecs)*time.Second)
		defer cancel()
	}

	rc := reqcontext.NewRequestContext("", "", nil, "")
	result, err := rpc.Call(ctx, mgr, rc, cfg.ControlExchange, args[0], env)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// dialAddr and dialOptions translate a service.Config into the address
// and options a standalone broker.Manager needs, independent of the
// Service worker lifecycle.
func dialAddr(cfg service.Config) string {
	if cfg.FakeRabbit {
		return "fake://" + cfg.ControlExchange
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.RabbitUser, cfg.RabbitPassword, cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitVirtualHost)
}

func dialOptions(cfg service.Config) []broker.Option {
	opts := []broker.Option{broker.WithRetry(cfg.RabbitRetryInterval, cfg.RabbitMaxRetries)}
	if cfg.FakeRabbit {
		opts = append(opts, broker.WithFakeBackend())
	}
	return opts
}
