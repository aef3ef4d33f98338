package main

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

// sdNotify reports watch-mode state (READY, WATCHDOG, STOPPING) to the service
// manager over the NOTIFY_SOCKET datagram socket. No-op outside systemd.
func sdNotify(state string) {
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return
	}

	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		slog.Debug("sd_notify: dial failed", "socket", addr, "error", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		slog.Debug("sd_notify: write failed", "state", state, "error", err)
	}
}

// watchdogInterval is the keepalive deadline systemd set for the watch loop,
// or 0 when no watchdog is configured.
func watchdogInterval() time.Duration {
	usec, err := strconv.ParseInt(os.Getenv("WATCHDOG_USEC"), 10, 64)
	if err != nil || usec <= 0 {
		return 0
	}
	return time.Duration(usec) * time.Microsecond
}
