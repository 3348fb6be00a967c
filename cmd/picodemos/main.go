// Command picodemos runs one of the board demos and reports its state over
// MQTT and an HTTP status page.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sweeney/picodemos/internal/apps"
	"github.com/sweeney/picodemos/internal/config"
	"github.com/sweeney/picodemos/internal/hw"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/sensor"
	"github.com/sweeney/picodemos/internal/status"
	"github.com/sweeney/picodemos/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds flag values that override the config file.
type options struct {
	configPath string
	broker     string
	httpAddr   string
	heartbeat  string
	wsBroker   string
	loopMs     int
	sensor     string
}

// builder constructs an app from the board.
type builder func(cfg *config.Config, b *board, env apps.Env) (apps.App, error)

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "picodemos",
		Short:        "Run button, buzzer, thermostat, beat and servo clock demos",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to picodemos.yml (built-in defaults if empty)")
	pf.StringVar(&opts.broker, "broker", "", "MQTT broker address")
	pf.StringVar(&opts.httpAddr, "http", "", `HTTP status address ("off" to disable)`)
	pf.StringVar(&opts.heartbeat, "heartbeat", "", `heartbeat interval ("0" to disable)`)
	pf.StringVar(&opts.wsBroker, "ws-broker", "", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	pf.IntVar(&opts.loopMs, "loop", 0, "loop period in milliseconds")

	root.AddCommand(
		appCmd(opts, "blink", "Cycle an LED between slow blink, fast blink and off on each press", buildBlinker),
		appCmd(opts, "melody", "Play looping tunes on a buzzer, switching tune on each press", buildMelody),
		thermostatCmd(opts),
		appCmd(opts, "beat", "Flash an RGB LED on sound peaks and log the tempo", buildBeat),
		appCmd(opts, "clock", "Show the time of a chosen timezone on a servo dial", buildClock),
		printStateCmd(opts),
	)
	return root
}

func appCmd(opts *options, name, short string, build builder) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return run(cfg, build)
		},
	}
}

func thermostatCmd(opts *options) *cobra.Command {
	cmd := appCmd(opts, "thermostat", "Compare a sensor with a setpoint and raise warnings and alarms", buildThermostat)
	cmd.Flags().StringVar(&opts.sensor, "sensor", "", "sensor variant: sim, dht20 or dht11")
	return cmd
}

func printStateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Print the current input readings and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			b, err := openBoard(cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			return printState(cmd.OutOrStdout(), cfg, b)
		},
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.broker != "" {
		cfg.Broker = opts.broker
	}
	if opts.httpAddr != "" {
		cfg.HTTP = opts.httpAddr
	}
	if cfg.HTTP == "off" {
		cfg.HTTP = ""
	}
	if opts.heartbeat != "" {
		cfg.Heartbeat = opts.heartbeat
	}
	if opts.wsBroker != "" {
		cfg.WSBroker = opts.wsBroker
	}
	if opts.loopMs != 0 {
		cfg.LoopMs = opts.loopMs
	}
	if opts.sensor != "" {
		if _, err := sensor.ParseKind(opts.sensor); err != nil {
			return nil, err
		}
		// Let the new variant's preset apply.
		cfg.Thermostat.Sensor = opts.sensor
		cfg.Thermostat.ReadMs = 0
		cfg.Thermostat.Average = 0
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config, build builder) error {
	heartbeat, err := cfg.HeartbeatInterval()
	if err != nil {
		return err
	}

	b, err := openBoard(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	app, err := build(cfg, b, apps.DefaultEnv())
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	publisher, err := mqtt.NewRealPublisher(cfg.Broker, app.Name())
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	wsBroker := resolveWSBroker(cfg.WSBroker, cfg.Broker)
	tracker := status.NewTracker(time.Now(), uuid.NewString(), status.Config{
		App:           app.Name(),
		LoopMs:        int64(cfg.LoopMs),
		DebounceMs:    int64(cfg.Input.DebounceMs),
		DoubleClickMs: int64(cfg.Input.DoubleClickMs),
		HeartbeatMs:   heartbeat.Milliseconds(),
		Broker:        cfg.Broker,
		HTTPPort:      cfg.HTTP,
		WSBroker:      wsBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: app=%s loop=%v broker=%s heartbeat=%v", app.Name(), cfg.Loop(), cfg.Broker, heartbeat)

	ticker := time.NewTicker(cfg.Loop())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	host := &apps.Host{
		App:       app,
		Clock:     hw.NewMonotonicClock(),
		Publisher: publisher,
		MQTT:      publisher,
		Tracker:   tracker,
		Heartbeat: heartbeat,
		Network:   readNetworkInfo,
	}
	return host.Run(context.Background(), ticker.C, sigCh)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the ws_broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" or
// empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" || ws == "" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
