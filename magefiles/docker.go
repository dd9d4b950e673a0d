//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"
)

// PostgreSQL test container settings.
const (
	pgContainerName = "teamboard-test-postgres"
	pgImage         = "docker.io/library/postgres:16-alpine"
	pgPassword      = "teamboard"
	pgPort          = "55432"
	pgReadyTimeout  = 60 * time.Second
)

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// startPostgres runs a throwaway PostgreSQL container, waits until it
// accepts connections, and returns its DSN.
func startPostgres(rt string) (string, error) {
	stopPostgres(rt)
	fmt.Fprintln(os.Stderr, "Starting postgres container...")
	cmd := exec.Command(rt, "run", "-d", "--rm",
		"--name", pgContainerName,
		"-e", "POSTGRES_PASSWORD="+pgPassword,
		"-e", "POSTGRES_DB=teamboard",
		"-p", pgPort+":5432",
		pgImage)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("starting postgres: %w", err)
	}

	deadline := time.Now().Add(pgReadyTimeout)
	for time.Now().Before(deadline) {
		ready := exec.Command(rt, "exec", pgContainerName, "pg_isready", "-U", "postgres")
		if ready.Run() == nil {
			dsn := fmt.Sprintf("postgres://postgres:%s@localhost:%s/teamboard?sslmode=disable", pgPassword, pgPort)
			return dsn, nil
		}
		time.Sleep(time.Second)
	}
	stopPostgres(rt)
	return "", fmt.Errorf("postgres not ready after %s", pgReadyTimeout)
}

// stopPostgres removes the test container. Errors are ignored because
// the container may not exist.
func stopPostgres(rt string) {
	_ = exec.Command(rt, "rm", "-f", pgContainerName).Run()
}
