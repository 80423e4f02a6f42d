// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package env reports the deployment environment the tool runs in. The value
// comes from the "env" configuration key or CLUSTERBUCKET_ENV.
package env

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Environment string

const (
	Local      Environment = "local"
	Production Environment = "production"
	Testing    Environment = "testing"
)

var (
	mu      sync.RWMutex
	current = Local
)

func init() {
	_ = viper.BindEnv("env", "CLUSTERBUCKET_ENV")
	_ = Load()
}

// Load re-reads the environment from viper. Unknown values leave the
// current environment unchanged.
func Load() error {
	raw := viper.GetString("env")
	if raw == "" {
		return nil
	}
	return Set(raw)
}

// Set switches the current environment.
func Set(name string) error {
	e := Environment(strings.ToLower(strings.TrimSpace(name)))
	switch e {
	case Local, Production, Testing:
	default:
		return fmt.Errorf("unknown environment %q", name)
	}
	mu.Lock()
	current = e
	mu.Unlock()
	return nil
}

func Current() Environment {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func IsLocal() bool {
	return Current() == Local
}

func IsProduction() bool {
	return Current() == Production
}

func IsTesting() bool {
	return Current() == Testing
}
