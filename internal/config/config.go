// Package config loads server and client configuration, per spec.md
// section 6: env-var overrides (grounded on the teacher's loadConfig in
// cmd/gameserver/main.go) plus the server.properties/client.properties
// file format spec.md names, and an optional YAML source for
// deployments that prefer it.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrBadPort is returned when PORT is outside 1..65535.
var ErrBadPort = errors.New("config: port out of range")

// ErrBadMaxClients is returned when MAX_CLIENTS is not positive.
var ErrBadMaxClients = errors.New("config: max_clients must be positive")

// ServerConfig is the bind/configuration surface spec.md section 6
// names for the server role.
type ServerConfig struct {
	Port       int
	MaxClients int
	IP         string
}

// DefaultServerConfig mirrors the teacher's DefaultServerConfig shape
// (config/config.go), widened to the fields spec.md section 6 requires
// of a UDP game server instead of an HTTP one.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:       7777,
		MaxClients: 64,
		IP:         "0.0.0.0",
	}
}

// Validate enforces spec.md section 7's Config error kinds: BadPort,
// BadMaxClients.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrBadPort
	}
	if c.MaxClients <= 0 {
		return ErrBadMaxClients
	}
	return nil
}

// ApplyEnv overrides fields from environment variables, the same
// override style as the teacher's loadConfig (cmd/gameserver/main.go):
// parse-or-keep-default, never fatal on a bad value here (validation
// happens in Validate).
func (c *ServerConfig) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
	if max := os.Getenv("MAX_CLIENTS"); max != "" {
		if m, err := strconv.Atoi(max); err == nil {
			c.MaxClients = m
		}
	}
	if ip := os.Getenv("IP"); ip != "" {
		c.IP = ip
	}
}

// ClientConfig is the client role's bind/configuration surface.
type ClientConfig struct {
	Port int
	IP   string
}

// DefaultClientConfig returns the client's defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Port: 7777,
		IP:   "127.0.0.1",
	}
}

// ApplyEnv overrides client fields from environment variables.
func (c *ClientConfig) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
	if ip := os.Getenv("IP"); ip != "" {
		c.IP = ip
	}
}

// LoadServerFile parses a server.properties file: '#' comments,
// case-insensitive keys, PORT/MAX_CLIENTS/IP, per spec.md section 6.
// Unset keys keep DefaultServerConfig's values.
func LoadServerFile(path string) (*ServerConfig, error) {
	props, err := parseProperties(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultServerConfig()
	if v, ok := props["port"]; ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: bad PORT value %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v, ok := props["max_clients"]; ok {
		m, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: bad MAX_CLIENTS value %q: %w", v, err)
		}
		cfg.MaxClients = m
	}
	if v, ok := props["ip"]; ok {
		cfg.IP = v
	}
	return cfg, nil
}

// LoadClientFile parses a client.properties file: PORT, IP.
func LoadClientFile(path string) (*ClientConfig, error) {
	props, err := parseProperties(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultClientConfig()
	if v, ok := props["port"]; ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: bad PORT value %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v, ok := props["ip"]; ok {
		cfg.IP = v
	}
	return cfg, nil
}

// parseProperties reads a key=value file with '#' comment lines and
// lower-cases keys so lookups are case-insensitive.
func parseProperties(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := strings.TrimSpace(parts[1])
		out[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// yamlServerConfig mirrors ServerConfig's fields with yaml tags, kept
// separate so ServerConfig itself stays free of serialization tags it
// doesn't need for the .properties path.
type yamlServerConfig struct {
	Port       int    `yaml:"port"`
	MaxClients int    `yaml:"max_clients"`
	IP         string `yaml:"ip"`
}

// LoadServerYAML is an alternate source for deployments that prefer
// YAML over .properties; spec.md only names .properties, this is an
// additive convenience the core CLI does not require.
func LoadServerYAML(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultServerConfig()
	parsed := yamlServerConfig{Port: cfg.Port, MaxClients: cfg.MaxClients, IP: cfg.IP}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	cfg.Port = parsed.Port
	cfg.MaxClients = parsed.MaxClients
	cfg.IP = parsed.IP
	return cfg, nil
}
