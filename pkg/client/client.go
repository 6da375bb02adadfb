// Package client talks to a running sundownd over its control socket.
package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
)

var dial = net.Dial

// ClientInterface defines the methods for interacting with sundownd.
// Used for testability and mocking in the CLI.
type ClientInterface interface {
	Ping() error
	GetStatus() (map[string]any, error)
	GetTemperature() (map[string]any, error)
	SetTemperature(kelvin int) error
	Reset() error
	GetVersion() (string, error)
}

// Client represents a connection to sundownd
type Client struct {
	logger *slog.Logger
	socket string
}

// New creates a new client. An empty socket path selects the XDG
// runtime default.
func New(logger *slog.Logger, socket string) *Client {
	if socket == "" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			socket = filepath.Join(dir, "sundownd.sock")
			logger.Debug("Using XDG runtime directory for socket", "dir", dir, "socket", socket)
		} else {
			uid := os.Getuid()
			socket = filepath.Join("/run/user", fmt.Sprintf("%d", uid), "sundownd.sock")
			logger.Debug("Using /run/user for socket", "uid", uid, "socket", socket)
		}
	} else {
		logger.Debug("Using provided socket path", "socket", socket)
	}

	return &Client{
		logger: logger,
		socket: socket,
	}
}

// request sends a request to sundownd and decodes the response.
func (c *Client) request(action string, data map[string]any) (map[string]any, error) {
	conn, err := dial("unix", c.socket)
	if err != nil {
		c.logger.Error("Failed to connect to socket", "error", err, "socket", c.socket)
		return nil, fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	req := map[string]any{"action": action}
	if data != nil {
		req["data"] = data
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp map[string]any
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if msg, ok := resp["error"].(string); ok {
		return nil, fmt.Errorf("server error: %s", msg)
	}
	return resp, nil
}

// Ping verifies the daemon is reachable
func (c *Client) Ping() error {
	_, err := c.request("ping", nil)
	return err
}

// GetStatus returns the scheduler status
func (c *Client) GetStatus() (map[string]any, error) {
	return c.request("get_status", nil)
}

// GetTemperature returns the currently applied temperature
func (c *Client) GetTemperature() (map[string]any, error) {
	return c.request("get_temperature", nil)
}

// SetTemperature overrides the current temperature
func (c *Client) SetTemperature(kelvin int) error {
	_, err := c.request("set_temperature", map[string]any{"kelvin": kelvin})
	return err
}

// Reset restores the neutral daylight temperature
func (c *Client) Reset() error {
	_, err := c.request("reset", nil)
	return err
}

// GetVersion returns the daemon version
func (c *Client) GetVersion() (string, error) {
	resp, err := c.request("get_version", nil)
	if err != nil {
		return "", err
	}
	version, _ := resp["version"].(string)
	return version, nil
}
