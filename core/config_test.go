package core

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_Defaults(t *testing.T) {
	config := &ClusterConfig{Username: "admin@redis.local", Password: "secret"}
	config.Validate(DefaultValidators()...)

	if config.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", config.BaseURL, DefaultBaseURL)
	}
	if config.Timeout == nil || *config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", config.Timeout)
	}
	if config.MaxConnections != 10 {
		t.Errorf("MaxConnections = %d, want 10", config.MaxConnections)
	}
	if !strings.HasPrefix(config.UserAgent, "go-redis-enterprise-") {
		t.Errorf("UserAgent = %q, want go-redis-enterprise prefix", config.UserAgent)
	}
	if config.BusyClassifier == nil {
		t.Error("BusyClassifier must default to DefaultBusyClassifier")
	}
	if config.Logger == nil {
		t.Error("Logger must default to a nop logger")
	}
}

func TestValidate_KeepsExplicitValues(t *testing.T) {
	timeout := time.Minute
	config := &ClusterConfig{
		BaseURL:        "https://cluster.example.com:9443/",
		Username:       "ops@redis.local",
		Password:       "secret",
		Timeout:        &timeout,
		MaxConnections: 50,
		UserAgent:      "custom-agent",
	}
	config.Validate(DefaultValidators()...)

	if config.BaseURL != "https://cluster.example.com:9443" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", config.BaseURL)
	}
	if *config.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", *config.Timeout)
	}
	if config.MaxConnections != 50 {
		t.Errorf("MaxConnections = %d, want 50", config.MaxConnections)
	}
	if config.UserAgent != "custom-agent" {
		t.Errorf("UserAgent = %q, want custom-agent", config.UserAgent)
	}
}

func TestValidate_PanicsWithoutCredentials(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Validate must panic when credentials are missing")
		}
	}()
	config := &ClusterConfig{}
	config.Validate(DefaultValidators()...)
}

func TestWithBaseURL_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "https url", baseURL: "https://10.0.0.1:9443", wantErr: false},
		{name: "http url", baseURL: "http://localhost:8080", wantErr: false},
		{name: "missing scheme", baseURL: "localhost:9443", wantErr: true},
		{name: "bare host", baseURL: "cluster.local", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &ClusterConfig{BaseURL: tt.baseURL}
			err := WithBaseURL(DefaultBaseURL)(config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithBaseURL(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, "https://cluster.example.com:9443")
	t.Setenv(EnvUsername, "ops@redis.local")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvInsecure, "true")

	config, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if config.BaseURL != "https://cluster.example.com:9443" {
		t.Errorf("BaseURL = %q", config.BaseURL)
	}
	if config.Username != "ops@redis.local" {
		t.Errorf("Username = %q", config.Username)
	}
	if !config.Insecure {
		t.Error("Insecure must be true")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvInsecure, "")

	config, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if config.Username != DefaultUsername {
		t.Errorf("Username = %q, want %q", config.Username, DefaultUsername)
	}
	if config.Insecure {
		t.Error("Insecure must default to false")
	}
}

func TestFromEnv_MissingPassword(t *testing.T) {
	t.Setenv(EnvPassword, "")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("FromEnv() must fail without a password")
	}
	if kind, ok := KindOf(err); !ok || kind != KindAuthentication {
		t.Errorf("error kind = %v, want %v", kind, KindAuthentication)
	}
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", " True "} {
		if !truthy(s) {
			t.Errorf("truthy(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "0", "false", "yes", "junk"} {
		if truthy(s) {
			t.Errorf("truthy(%q) = true, want false", s)
		}
	}
}
