//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// Test groups test targets.
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs every test with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover writes a coverage profile and prints the per-function summary.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverProfile)
}

// Postgres starts a disposable PostgreSQL container and runs the store
// and engine tests against it. Requires podman or docker.
func (Test) Postgres() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	dsn, err := startPostgres(rt)
	if err != nil {
		return err
	}
	defer stopPostgres(rt)

	env := map[string]string{"TEAMBOARD_TEST_POSTGRES_DSN": dsn}
	fmt.Fprintln(os.Stderr, "Running postgres tests against", dsn)
	return sh.RunWithV(env, binGo, "test", "-count=1", "./internal/postgres/...")
}
