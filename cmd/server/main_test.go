package main

import (
	"testing"

	"sugeria/backend/internal/config"
)

func TestValidateSecurityConfigRejectsShortSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Secret = "short"
	if err := validateSecurityConfig(cfg); err == nil {
		t.Fatalf("expected short auth secret to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"
	if err := validateSecurityConfig(cfg); err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
