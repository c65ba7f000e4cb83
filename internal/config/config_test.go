package config

import (
	"strings"
	"testing"
)

func setRequiredURLs(t *testing.T) {
	t.Helper()
	t.Setenv("GATEWAY_URL", "http://gateway:8000")
	t.Setenv("VALIDATION_URL", "http://validation:8001")
	t.Setenv("DASHBOARD_URL", "http://dashboard:8002")
	t.Setenv("ADMIN_URL", "http://admin:8003")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredURLs(t)
	t.Setenv("RASTER_OVERSAMPLE", "")
	t.Setenv("RESOLVER_MIN_SNAP_CHARS", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RasterOversample != 2.0 {
		t.Fatalf("expected default oversample 2.0, got %v", cfg.RasterOversample)
	}
	if cfg.ResolverMinSnapLen != 3 {
		t.Fatalf("expected default min snap chars 3, got %d", cfg.ResolverMinSnapLen)
	}
	if cfg.APIRateLimitRPS != 50 {
		t.Fatalf("expected default rate limit 50, got %d", cfg.APIRateLimitRPS)
	}
	if cfg.ReviewerID != "console" {
		t.Fatalf("expected default reviewer id, got %q", cfg.ReviewerID)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequiredURLs(t)
	t.Setenv("RASTER_OVERSAMPLE", "3.5")
	t.Setenv("RESOLVER_MIN_SNAP_CHARS", "5")
	t.Setenv("REVIEWER_ID", "reviewer-7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RasterOversample != 3.5 {
		t.Fatalf("expected oversample override, got %v", cfg.RasterOversample)
	}
	if cfg.ResolverMinSnapLen != 5 {
		t.Fatalf("expected min snap chars 5, got %d", cfg.ResolverMinSnapLen)
	}
	if cfg.ReviewerID != "reviewer-7" {
		t.Fatalf("expected reviewer override, got %q", cfg.ReviewerID)
	}
}

func TestLoadReportsAllMissingURLs(t *testing.T) {
	t.Setenv("GATEWAY_URL", "")
	t.Setenv("VALIDATION_URL", "")
	t.Setenv("DASHBOARD_URL", "http://dashboard:8002")
	t.Setenv("ADMIN_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for missing URLs")
	}
	for _, name := range []string{"GATEWAY_URL", "VALIDATION_URL", "ADMIN_URL"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not name %s", err.Error(), name)
		}
	}
	if strings.Contains(err.Error(), "DASHBOARD_URL") {
		t.Fatalf("error %q names a variable that is set", err.Error())
	}
}
