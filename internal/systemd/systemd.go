// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd tells systemd that the bot started, is alive and is
// stopping, using the sd_notify protocol. Outside of systemd every function
// is a no-op.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.astrophena.name/bollybot/internal/logger"
)

// State is a sd_notify message.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that startup is finished.
	Ready State = "READY=1"
	// Stopping tells the service manager that the service is shutting down.
	Stopping State = "STOPPING=1"
	// Watchdog updates the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Status returns a message describing the service state in free form, shown
// by systemctl status.
func Status(s string) State { return State("STATUS=" + s) }

// Notify sends state to the socket named by the NOTIFY_SOCKET variable
// returned by getenv. Errors are logged with the logger from ctx.
func Notify(ctx context.Context, getenv func(string) string, state State) {
	addr := &net.UnixAddr{Net: "unixgram", Name: getenv("NOTIFY_SOCKET")}
	if addr.Name == "" {
		return
	}

	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		logger.Get(ctx).WarnContext(ctx, "systemd: failed to notify", "error", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		logger.Get(ctx).WarnContext(ctx, "systemd: failed to notify", "error", err)
	}
}

// WatchdogLoop updates the watchdog timestamp at half of the WATCHDOG_USEC
// interval until ctx is canceled. If alive is not nil, the timestamp is only
// updated while it returns true, so systemd restarts a stuck service.
func WatchdogLoop(ctx context.Context, getenv func(string) string, alive func() bool) {
	if getenv("WATCHDOG_USEC") == "" {
		return
	}
	interval, err := watchdogInterval(getenv("WATCHDOG_USEC"))
	if err != nil {
		logger.Get(ctx).WarnContext(ctx, "systemd: watchdog disabled", "error", err)
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if alive == nil || alive() {
				Notify(ctx, getenv, Watchdog)
			}
		case <-ctx.Done():
			return
		}
	}
}

func watchdogInterval(usec string) (time.Duration, error) {
	s, err := strconv.Atoi(usec)
	if err != nil {
		return 0, fmt.Errorf("parsing WATCHDOG_USEC: %w", err)
	}
	if s <= 0 {
		return 0, errors.New("WATCHDOG_USEC must be a positive number")
	}
	return time.Duration(s) * time.Microsecond, nil
}
