package core

import "testing"

func TestBuildURL(t *testing.T) {
	config := &ClusterConfig{BaseURL: "https://cluster.local:9443"}

	tests := []struct {
		name  string
		path  string
		query string
		want  string
	}{
		{name: "relative path", path: "v1/bdbs", want: "https://cluster.local:9443/v1/bdbs"},
		{name: "leading slash", path: "/v1/bdbs", want: "https://cluster.local:9443/v1/bdbs"},
		{name: "with query", path: "v1/logs", query: "order=asc", want: "https://cluster.local:9443/v1/logs?order=asc"},
		{name: "path carries query", path: "v1/logs?limit=10", query: "order=asc", want: "https://cluster.local:9443/v1/logs?limit=10&order=asc"},
		{name: "full url passes through", path: "https://other.local/v2/actions", want: "https://other.local/v2/actions"},
		{name: "full url with query", path: "https://other.local/v2/actions", query: "limit=5", want: "https://other.local/v2/actions?limit=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildURL(config, tt.path, tt.query)
			if err != nil {
				t.Fatalf("buildURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("buildURL(%q, %q) = %q, want %q", tt.path, tt.query, got, tt.want)
			}
		})
	}
}

func TestBuildURL_BasePath(t *testing.T) {
	config := &ClusterConfig{BaseURL: "https://cluster.local:9443/api/"}
	got, err := buildURL(config, "v1/bdbs", "")
	if err != nil {
		t.Fatalf("buildURL() error = %v", err)
	}
	if got != "https://cluster.local:9443/api/v1/bdbs" {
		t.Errorf("buildURL() = %q", got)
	}
}
