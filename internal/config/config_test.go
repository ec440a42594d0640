package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
}

func TestValidateRejectsBadAlgorithmWeightSum(t *testing.T) {
	cfg := Default()
	cfg.Recommender.AlgorithmWeights.Collaborative = 0.7
	cfg.Recommender.AlgorithmWeights.Content = 0.7
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected weight sum 1.4 to be rejected")
	}
}

func TestValidateRejectsBadSimilarityWeightSum(t *testing.T) {
	cfg := Default()
	cfg.Recommender.Similarity.ItemOverlapWeight = 0.9
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected similarity weight sum above 1 to be rejected")
	}

	cfg = Default()
	cfg.Recommender.Similarity.Demographic.AgeWeight = 0.1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected demographic weight sum below 1 to be rejected")
	}
}

func TestValidateToleranceBoundary(t *testing.T) {
	// A drift inside the tolerance passes; outside it fails.
	cfg := Default()
	cfg.Recommender.AlgorithmWeights.Collaborative = 0.605
	if err := cfg.Validate(); err != nil {
		t.Fatalf("drift of 0.005 must be tolerated: %v", err)
	}

	cfg = Default()
	cfg.Recommender.AlgorithmWeights.Collaborative = 0.62
	if err := cfg.Validate(); err == nil {
		t.Fatalf("drift of 0.02 must be rejected")
	}
}

func TestValidateRejectsNegativeContentWeights(t *testing.T) {
	cfg := Default()
	cfg.Recommender.Content.QualityWeight = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative content weight to be rejected")
	}
}

func TestValidateRejectsInvertedPriceTiers(t *testing.T) {
	cfg := Default()
	cfg.Recommender.Content.LowTierMaxPriceCents = 90000
	cfg.Recommender.Content.HighTierMinPriceCents = 10000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected low tier cap above high tier floor to be rejected")
	}
}

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Auth.Secret != "" {
		t.Fatalf("expected empty auth secret when unset, got %q", cfg.Auth.Secret)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("RECOMMENDER_TOP_PEERS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Fatalf("expected PORT override, got %q", cfg.Server.Port)
	}
	if cfg.Recommender.TopPeers != 7 {
		t.Fatalf("expected top peers override, got %d", cfg.Recommender.TopPeers)
	}
}

func TestLoadReadsYAMLConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte("server:\n  port: \"7070\"\nrecommender:\n  default_limit: 9\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Recommender.DefaultLimit != 9 {
		t.Fatalf("expected default limit from file, got %d", cfg.Recommender.DefaultLimit)
	}
	// Untouched values keep their defaults.
	if cfg.Recommender.TopPeers != 5 {
		t.Fatalf("expected default top peers, got %d", cfg.Recommender.TopPeers)
	}
}

func TestLoadFailsOnInvalidFileWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte("recommender:\n  algorithm_weights:\n    collaborative: 0.9\n    content: 0.9\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected load to fail on inconsistent weights")
	}
}
