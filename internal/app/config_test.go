package app

import (
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
)

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg, err := configFrom(v)
	if err != nil {
		t.Fatalf("configFrom: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBDriver != "postgres" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CatalogCacheTTL != 10*time.Minute || cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("durations: ttl=%v timeout=%v", cfg.CatalogCacheTTL, cfg.RequestTimeout)
	}
	if cfg.TxRetryAttempts != 3 || cfg.TxRetryBackoff != 20*time.Millisecond {
		t.Fatalf("tx retry defaults=%d/%v", cfg.TxRetryAttempts, cfg.TxRetryBackoff)
	}
	if len(cfg.ThreeOrMoreDesignations) != 2 || cfg.ThreeOrMoreDesignations[1] != checklist.ApplicantTwo {
		t.Fatalf("three_or_more designations=%v", cfg.ThreeOrMoreDesignations)
	}
	if len(cfg.CORSOrigins) != 0 || !cfg.MetricsEnabled || cfg.Otel.Enabled {
		t.Fatalf("unexpected toggles: %+v", cfg)
	}
}

func TestConfigOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CATALOG_CACHE_TTL", "90")
	v.Set("REQUEST_TIMEOUT", "250ms")
	v.Set("GROUP_CREATE_MAX_ATTEMPTS", "5")
	v.Set("TX_RETRY_ATTEMPTS", "4")
	v.Set("TX_RETRY_BACKOFF", "5ms")
	v.Set("THREE_PLUS_DESIGNATIONS", " applicant_one, applicant_two ,applicant_three,")
	v.Set("CORS_ORIGINS", "https://a.example, https://b.example")
	v.Set("METRICS_ENABLED", "false")
	v.Set("OTEL_SAMPLE_RATIO", "0.25")

	cfg, err := configFrom(v)
	if err != nil {
		t.Fatalf("configFrom: %v", err)
	}
	if cfg.CatalogCacheTTL != 90*time.Second {
		t.Fatalf("ttl=%v want 90s", cfg.CatalogCacheTTL)
	}
	if cfg.RequestTimeout != 250*time.Millisecond {
		t.Fatalf("timeout=%v", cfg.RequestTimeout)
	}
	if cfg.GroupCreateMaxAttempts != 5 || cfg.MetricsEnabled || cfg.Otel.SampleRatio != 0.25 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.TxRetryAttempts != 4 || cfg.TxRetryBackoff != 5*time.Millisecond {
		t.Fatalf("tx retry=%d/%v", cfg.TxRetryAttempts, cfg.TxRetryBackoff)
	}
	if len(cfg.ThreeOrMoreDesignations) != 3 || cfg.ThreeOrMoreDesignations[2] != "applicant_three" {
		t.Fatalf("designations=%v", cfg.ThreeOrMoreDesignations)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins=%v", cfg.CORSOrigins)
	}
}

func TestConfigBadDuration(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("REQUEST_TIMEOUT", "soon")
	if _, err := configFrom(v); err == nil {
		t.Fatalf("expected an error for an unparsable duration")
	}
}
