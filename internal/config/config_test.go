package config

import (
	"testing"
	"time"
)

func TestLoadProxiesFromEnvOrder(t *testing.T) {
	t.Setenv("CUSTOM_PROXY_SERVER", "http://custom:8080")
	t.Setenv("CUSTOM_PROXY_USERNAME", "cu")
	t.Setenv("CUSTOM_PROXY_PASSWORD", "cp")
	t.Setenv("GEONODE_PROXY_SERVER", "http://geo:9000")
	t.Setenv("GEONODE_PROXY_2_SERVER", "http://geo2:9000")
	t.Setenv("GEONODE_PROXY_5_SERVER", "http://geo5:9000")

	proxies := loadProxiesFromEnv()

	want := []string{"http://custom:8080", "http://geo:9000", "http://geo2:9000", "http://geo5:9000"}
	if len(proxies) != len(want) {
		t.Fatalf("loaded %d proxies, want %d: %+v", len(proxies), len(want), proxies)
	}
	for i, server := range want {
		if proxies[i].Server != server {
			t.Errorf("proxies[%d].Server = %s, want %s", i, proxies[i].Server, server)
		}
	}
	if proxies[0].Username != "cu" || proxies[0].Password != "cp" {
		t.Errorf("custom proxy credentials not loaded: %+v", proxies[0])
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Scraper.MaxAttempts != 10 {
		t.Errorf("MaxAttempts = %d, want 10", cfg.Scraper.MaxAttempts)
	}
	if cfg.Captcha.Wait != 4*time.Minute {
		t.Errorf("Captcha.Wait = %v, want 4m", cfg.Captcha.Wait)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	cfg.Scraper.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted MaxAttempts = 0")
	}

	cfg.Scraper.MaxAttempts = 5
	cfg.Scraper.PostLoginSettleMin = 10 * time.Second
	cfg.Scraper.PostLoginSettleMax = time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted settle min > max")
	}
}
