// Package server exposes the daemon's control API over a Unix socket
// using a line-delimited JSON protocol.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sundown-sh/sundown/internal/config"
	sderrors "github.com/sundown-sh/sundown/internal/errors"
	"github.com/sundown-sh/sundown/internal/gamma"
	"github.com/sundown-sh/sundown/internal/schedule"
)

// TemperatureScheduler is the scheduler surface the server drives.
type TemperatureScheduler interface {
	IsRunning() bool
	CurrentTemperature() (kelvin int, ok bool)
	SetTemperatureNow(kelvin int)
	SunTimes() (schedule.SunEvents, bool)
	Config() schedule.Config
}

// Server manages the sundownd control socket.
type Server struct {
	logger     *slog.Logger
	sched      TemperatureScheduler
	socketPath string
	version    string
	listener   net.Listener
	shutdown   chan struct{}
	wg         sync.WaitGroup
	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// New creates a new server instance.
func New(logger *slog.Logger, cfg *config.Config, sched TemperatureScheduler, version string) *Server {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &Server{
		logger:     logger,
		sched:      sched,
		socketPath: cfg.Server.UnixSocket,
		version:    version,
		shutdown:   make(chan struct{}),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}
}

// Start begins listening on the control socket.
func (s *Server) Start() error {
	s.logger.Info("Starting sundownd server")

	// Ensure socket directory exists
	sockDir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(sockDir, 0755); err != nil {
		return fmt.Errorf("failed to create socket directory %s: %w", sockDir, err)
	}

	// Remove existing socket file if it exists
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("failed to remove existing socket file %s: %w", s.socketPath, err)
		}
	}

	var err error
	s.listener, err = net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", s.socketPath, err)
	}
	s.logger.Info("Listening on Unix socket", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down sundownd server")
	s.rootCancel()
	close(s.shutdown)

	if s.listener != nil {
		s.listener.Close()
	}

	s.wg.Wait()
	s.logger.Info("Server shut down gracefully")
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in acceptConnections", "recover", r)
		}
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.logger.Debug("Socket listener shutting down")
				return
			default:
				s.logger.Error("Failed to accept connection", "error", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in connection handler", "recover", r)
			// Best effort: the connection may already be unusable.
			s.sendError(conn, sderrors.Internalf("connection handler panic: %v", r).Error())
		}
	}()

	ctx, cancel := context.WithCancel(s.rootCtx)
	defer cancel()

	go func() {
		select {
		case <-s.shutdown:
			if cconn, ok := conn.(*net.UnixConn); ok {
				cconn.CloseRead() // Force connection to unblock for shutdown
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	reader := bufio.NewReader(conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "use of closed network connection") {
				s.logger.Debug("Client disconnected")
			} else {
				s.logger.Error("Failed to read from connection", "error", err)
			}
			return
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Error("Failed to unmarshal request", "error", err, "request", string(line))
			s.sendError(conn, fmt.Sprintf("invalid JSON request: %s", err))
			continue
		}

		action, _ := req["action"].(string)
		data, _ := req["data"].(map[string]any)

		s.logger.Debug("Received request", "action", action, "data", data)
		s.handleAction(conn, action, data)
	}
}

func (s *Server) handleAction(conn net.Conn, action string, data map[string]any) {
	switch action {
	case "ping":
		s.sendResponse(conn, map[string]any{"message": "pong"})

	case "get_status":
		s.sendResponse(conn, s.statusPayload())

	case "get_temperature":
		kelvin, ok := s.sched.CurrentTemperature()
		resp := map[string]any{"applied": ok}
		if ok {
			resp["kelvin"] = kelvin
		}
		s.sendResponse(conn, resp)

	case "set_temperature":
		kelvin, ok := intParam(data, "kelvin")
		if !ok {
			s.sendError(conn, "missing or invalid kelvin for set_temperature")
			return
		}
		if kelvin < config.MinTemperature || kelvin > config.MaxTemperature {
			s.sendError(conn, fmt.Sprintf("kelvin %d out of range [%d, %d]",
				kelvin, config.MinTemperature, config.MaxTemperature))
			return
		}
		s.sched.SetTemperatureNow(kelvin)
		s.sendResponse(conn, map[string]any{"kelvin": kelvin})

	case "reset":
		s.sched.SetTemperatureNow(gamma.TemperatureDaylight)
		s.sendResponse(conn, map[string]any{"kelvin": gamma.TemperatureDaylight})

	case "get_version":
		s.sendResponse(conn, map[string]any{"version": s.version})

	default:
		s.logger.Warn("received unknown action", "action", action)
		s.sendError(conn, "unknown action: "+action)
	}
}

// statusPayload assembles the get_status response.
func (s *Server) statusPayload() map[string]any {
	cfg := s.sched.Config()
	status := map[string]any{
		"running":         s.sched.IsRunning(),
		"day_temp":        cfg.DayTemp,
		"night_temp":      cfg.NightTemp,
		"update_interval": cfg.UpdateInterval.String(),
		"transition":      cfg.Transition.String(),
		"sun_relative":    cfg.Location != nil,
	}
	if kelvin, ok := s.sched.CurrentTemperature(); ok {
		status["kelvin"] = kelvin
	}
	if cfg.Location != nil {
		status["latitude"] = cfg.Location.Latitude
		status["longitude"] = cfg.Location.Longitude
		if cfg.Location.Timezone != "" {
			status["timezone"] = cfg.Location.Timezone
		}
	}
	if ev, ok := s.sched.SunTimes(); ok {
		status["sunrise"] = ev.Sunrise.Format(time.RFC3339)
		status["sunset"] = ev.Sunset.Format(time.RFC3339)
	}
	return status
}

func (s *Server) sendResponse(conn net.Conn, data map[string]any) {
	response := map[string]any{"status": "ok"}
	maps.Copy(response, data)
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send response", "error", err)
	}
}

func (s *Server) sendError(conn net.Conn, message string) {
	s.logger.Error("Sending error response to client", "message", message)
	response := map[string]any{"error": message}
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send error response", "error", err)
	}
}

// intParam reads an integer field from the request data. JSON numbers
// decode as float64.
func intParam(data map[string]any, key string) (int, bool) {
	v, ok := data[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}
