package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	if info.Type != "wifi" || info.IP != "192.168.1.100" || info.Status != "connected" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Gateway != "192.168.1.1" || info.WifiStatus != "connected" || info.SSID != "MyNetwork" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "")
	t.Setenv(envNetworkIP, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.Type != "" || info.IP != "" {
		t.Errorf("expected empty type and ip, got %+v", info)
	}
}

func TestResolveWSBroker(t *testing.T) {
	tests := []struct {
		ws, broker, want string
	}{
		{"=broker", "tcp://192.168.1.200:1883", "ws://192.168.1.200:9001"},
		{"=broker", "tcp://broker.local:1883", "ws://broker.local:9001"},
		{"ws://other:8080/mqtt", "tcp://192.168.1.200:1883", "ws://other:8080/mqtt"},
		{"off", "tcp://192.168.1.200:1883", ""},
		{"", "tcp://192.168.1.200:1883", ""},
	}
	for _, tt := range tests {
		if got := resolveWSBroker(tt.ws, tt.broker); got != tt.want {
			t.Errorf("resolveWSBroker(%q, %q) = %q, want %q", tt.ws, tt.broker, got, tt.want)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(&options{})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LoopMs != 10 {
		t.Errorf("LoopMs: got %d, want 10", cfg.LoopMs)
	}
	if cfg.HTTP != ":80" {
		t.Errorf("HTTP: got %q, want :80", cfg.HTTP)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picodemos.yml")
	if err := os.WriteFile(path, []byte("broker: tcp://file:1883\nloop_ms: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(&options{
		configPath: path,
		broker:     "tcp://flag:1883",
		httpAddr:   "off",
		heartbeat:  "0",
		sensor:     "dht20",
	})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Broker != "tcp://flag:1883" {
		t.Errorf("Broker: got %q", cfg.Broker)
	}
	if cfg.LoopMs != 20 {
		t.Errorf("LoopMs from file: got %d, want 20", cfg.LoopMs)
	}
	if cfg.HTTP != "" {
		t.Errorf("HTTP: got %q, want disabled", cfg.HTTP)
	}
	if hb, _ := cfg.HeartbeatInterval(); hb != 0 {
		t.Errorf("heartbeat: got %v, want disabled", hb)
	}
	if cfg.Thermostat.Sensor != "dht20" || cfg.Thermostat.ReadMs != 2000 || cfg.Thermostat.Average != 10 {
		t.Errorf("expected dht20 preset, got %+v", cfg.Thermostat)
	}
}

func TestLoadConfigRejectsBadSensor(t *testing.T) {
	if _, err := loadConfig(&options{sensor: "bme280"}); err == nil {
		t.Error("expected error for unknown sensor")
	}
}

func TestLoadConfigRejectsBadLoop(t *testing.T) {
	if _, err := loadConfig(&options{loopMs: 500}); err == nil {
		t.Error("expected error for loop period out of range")
	}
}

func TestButtonState(t *testing.T) {
	tests := []struct {
		level, activeLow bool
		want             string
	}{
		{true, false, "PRESSED"},
		{false, false, "RELEASED"},
		{false, true, "PRESSED"},
		{true, true, "RELEASED"},
	}
	for _, tt := range tests {
		if got := buttonState(tt.level, tt.activeLow); got != tt.want {
			t.Errorf("buttonState(%v, %v) = %q, want %q", tt.level, tt.activeLow, got, tt.want)
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	want := []string{"beat", "blink", "clock", "melody", "print-state", "thermostat"}
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("missing subcommand %q in %v", name, got)
		}
	}

	for _, flag := range []string{"config", "broker", "http", "heartbeat", "ws-broker", "loop"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}

	thermo, _, err := root.Find([]string{"thermostat"})
	if err != nil {
		t.Fatal(err)
	}
	if thermo.Flags().Lookup("sensor") == nil {
		t.Error("thermostat should accept --sensor")
	}
}

func TestRootHelp(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out.String(), "thermostat") {
		t.Errorf("help should list subcommands, got:\n%s", out.String())
	}
}

func TestAppRejectsBadConfigBeforeHardware(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"blink", "--config", filepath.Join(t.TempDir(), "missing.yml")})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("expected config read error, got %v", err)
	}
}
