package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.bryk.io/compute/cli"
	"go.bryk.io/compute/cli/konf"
	"go.bryk.io/compute/internal/echo"
	xlog "go.bryk.io/compute/log"
	"go.bryk.io/compute/otel"
	"go.bryk.io/compute/prometheus"
	"go.bryk.io/compute/service"
)

// rawConfig mirrors service.Config but keeps the interval settings as
// plain seconds, since they're sourced from int-valued CLI flags rather
// than duration strings.
type rawConfig struct {
	Host                string `yaml:"host"`
	Binary              string `yaml:"binary"`
	Topic               string `yaml:"topic"`
	ControlExchange     string `yaml:"control_exchange"`
	ReportInterval      int    `yaml:"report_interval"`
	PeriodicInterval    int    `yaml:"periodic_interval"`
	FakeRabbit          bool   `yaml:"fake_rabbit"`
	RabbitHost          string `yaml:"rabbit_host"`
	RabbitPort          int    `yaml:"rabbit_port"`
	RabbitUser          string `yaml:"rabbit_userid"`
	RabbitPassword      string `yaml:"rabbit_password"`
	RabbitVirtualHost   string `yaml:"rabbit_virtual_host"`
	RabbitRetryInterval int    `yaml:"rabbit_retry_interval"`
	RabbitMaxRetries    int    `yaml:"rabbit_max_retries"`
	RPCThreadPoolSize   int    `yaml:"rpc_thread_pool_size"`
}

func (r rawConfig) toServiceConfig() service.Config {
	return service.Config{
		Host:                r.Host,
		Binary:              r.Binary,
		Topic:               r.Topic,
		ControlExchange:     r.ControlExchange,
		ReportInterval:      time.Duration(r.ReportInterval) * time.Second,
		PeriodicInterval:    time.Duration(r.PeriodicInterval) * time.Second,
		FakeRabbit:          r.FakeRabbit,
		RabbitHost:          r.RabbitHost,
		RabbitPort:          r.RabbitPort,
		RabbitUser:          r.RabbitUser,
		RabbitPassword:      r.RabbitPassword,
		RabbitVirtualHost:   r.RabbitVirtualHost,
		RabbitRetryInterval: time.Duration(r.RabbitRetryInterval) * time.Second,
		RabbitMaxRetries:    r.RabbitMaxRetries,
		RPCThreadPoolSize:   r.RPCThreadPoolSize,
	}
}

// runParams mirrors the source's FLAGS.DEFINE_* declarations for
// rpc.py and service.py, one cli.Param per service.Config field.
// Flag names match service.Config's yaml tags exactly so konf's pflag
// provider overrides the right key without needing a name translation.
var runParams = []cli.Param{
	{Name: "host", Usage: "node identifier used for the per-host topic", ByDefault: hostname()},
	{Name: "binary", Usage: "reported process name", ByDefault: "computed"},
	{Name: "topic", Usage: "shared topic this worker listens on", ByDefault: "compute"},
	{Name: "control_exchange", Usage: "topic exchange every node publishes/consumes through", ByDefault: "compute"},
	{Name: "report_interval", Usage: "seconds between report_state invocations, 0 disables it", ByDefault: 10},
	{Name: "periodic_interval", Usage: "seconds between periodic_tasks invocations, 0 disables it", ByDefault: 60},
	{Name: "fake_rabbit", Usage: "use the in-process broker instead of dialing a live server", ByDefault: false},
	{Name: "rabbit_host", Usage: "AMQP091 broker host", ByDefault: "localhost"},
	{Name: "rabbit_port", Usage: "AMQP091 broker port", ByDefault: 5672},
	{Name: "rabbit_userid", Usage: "AMQP091 broker user", ByDefault: "guest"},
	{Name: "rabbit_password", Usage: "AMQP091 broker password", ByDefault: "guest"},
	{Name: "rabbit_virtual_host", Usage: "AMQP091 broker virtual host", ByDefault: "/"},
	{Name: "rabbit_retry_interval", Usage: "seconds between initial connection attempts", ByDefault: 10},
	{Name: "rabbit_max_retries", Usage: "initial connection attempt ceiling, 0 retries forever", ByDefault: 12},
	{Name: "rpc_thread_pool_size", Usage: "bounded worker pool size per consumer", ByDefault: 1024},
	{Name: "metrics_listen_port", Usage: "port to expose a /metrics endpoint on, 0 disables it", ByDefault: 9090},
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a compute service worker",
		RunE:  runHandler,
	}
	if err := cli.SetupCommandParams(cmd, runParams); err != nil {
		panic(err)
	}
	return cmd
}

func runHandler(cmd *cobra.Command, _ []string) error {
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
	metricsPort, _ := cmd.Flags().GetInt("metrics_listen_port")

	ll := xlog.WithZero(xlog.ZeroOptions{PrettyPrint: true})
	obs, err := otel.NewOperator()
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	svc := service.New(cfg, &echo.Manager{}, service.WithLogger(ll), service.WithTracer(obs.MainComponent()))
	if err := svc.Start(); err != nil {
		return err
	}
	ll.WithFields(xlog.Fields{"topic": cfg.Topic, "host": cfg.Host}).Info("worker started")

	var metrics *service.WsgiService
	if metricsPort > 0 {
		prom, err := prometheus.NewOperator(nil)
		if err != nil {
			return err
		}
		metrics = service.NewWsgiService(ll)
		err = metrics.Start(service.WsgiApp{
			Config:  service.WsgiAppConfig{Name: "metrics", Listen: "0.0.0.0", Port: metricsPort},
			Handler: prom.MetricsHandler(),
		})
		if err != nil {
			return err
		}
		ll.WithFields(xlog.Fields{"port": metricsPort}).Info("metrics endpoint started")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ll.Info("shutting down")
	if metrics != nil {
		_ = metrics.Stop()
	}
	if err := svc.Stop(); err != nil {
		return err
	}
	svc.Wait()
	return nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return h
}
