package client

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"
)

type mockConn struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   bool
}

func (m *mockConn) Read(b []byte) (int, error)         { return m.readBuf.Read(b) }
func (m *mockConn) Write(b []byte) (int, error)        { return m.writeBuf.Write(b) }
func (m *mockConn) Close() error                       { m.closed = true; return nil }
func (m *mockConn) LocalAddr() net.Addr                { return nil }
func (m *mockConn) RemoteAddr() net.Addr               { return nil }
func (m *mockConn) SetDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func mockDialer(conn *mockConn) func(network, address string) (net.Conn, error) {
	return func(network, address string) (net.Conn, error) {
		return conn, nil
	}
}

// stub installs a canned server response and returns the connection so
// the test can inspect what the client wrote.
func stub(t *testing.T, resp map[string]any) *mockConn {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(resp); err != nil {
		t.Fatalf("encode stub response: %v", err)
	}
	conn := &mockConn{readBuf: buf, writeBuf: &bytes.Buffer{}}
	oldDial := dial
	dial = mockDialer(conn)
	t.Cleanup(func() { dial = oldDial })
	return conn
}

func sentRequest(t *testing.T, conn *mockConn) map[string]any {
	t.Helper()
	var req map[string]any
	if err := json.Unmarshal(conn.writeBuf.Bytes(), &req); err != nil {
		t.Fatalf("decode sent request: %v", err)
	}
	return req
}

func TestClient_AllMethods(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(logger, "/tmp/fake.sock")

	t.Run("Ping", func(t *testing.T) {
		conn := stub(t, map[string]any{"status": "ok", "message": "pong"})
		if err := c.Ping(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := sentRequest(t, conn)["action"]; got != "ping" {
			t.Fatalf("unexpected action: %v", got)
		}
		if !conn.closed {
			t.Fatal("connection not closed after request")
		}
	})

	t.Run("GetStatus", func(t *testing.T) {
		stub(t, map[string]any{
			"status":     "ok",
			"running":    true,
			"kelvin":     float64(4500),
			"day_temp":   float64(6500),
			"night_temp": float64(3400),
		})
		status, err := c.GetStatus()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status["running"] != true || status["kelvin"] != float64(4500) {
			t.Fatalf("unexpected status: %v", status)
		}
	})

	t.Run("GetTemperature", func(t *testing.T) {
		stub(t, map[string]any{"status": "ok", "applied": true, "kelvin": float64(3400)})
		resp, err := c.GetTemperature()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp["kelvin"] != float64(3400) {
			t.Fatalf("unexpected temperature: %v", resp)
		}
	})

	t.Run("SetTemperature", func(t *testing.T) {
		conn := stub(t, map[string]any{"status": "ok", "kelvin": float64(5000)})
		if err := c.SetTemperature(5000); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := sentRequest(t, conn)
		if req["action"] != "set_temperature" {
			t.Fatalf("unexpected action: %v", req["action"])
		}
		data, _ := req["data"].(map[string]any)
		if data["kelvin"] != float64(5000) {
			t.Fatalf("unexpected data: %v", req["data"])
		}
	})

	t.Run("Reset", func(t *testing.T) {
		conn := stub(t, map[string]any{"status": "ok", "kelvin": float64(6500)})
		if err := c.Reset(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := sentRequest(t, conn)["action"]; got != "reset" {
			t.Fatalf("unexpected action: %v", got)
		}
	})

	t.Run("GetVersion", func(t *testing.T) {
		stub(t, map[string]any{"status": "ok", "version": "1.2.3"})
		version, err := c.GetVersion()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if version != "1.2.3" {
			t.Fatalf("unexpected version: %q", version)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		stub(t, map[string]any{"error": "kelvin 42 out of range [1000, 10000]"})
		err := c.SetTemperature(42)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestClient_DefaultSocketFromXDG(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Setenv("XDG_RUNTIME_DIR", "/tmp/xdg-test")

	c := New(logger, "")
	if c.socket != "/tmp/xdg-test/sundownd.sock" {
		t.Fatalf("unexpected socket path: %q", c.socket)
	}
}
