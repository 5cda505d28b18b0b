package core

import "testing"

func TestClientVersion(t *testing.T) {
	if ClientVersion() == "" {
		t.Error("ClientVersion() must not be empty")
	}
}

func TestClusterSupports(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		constraint string
		want       bool
	}{
		{name: "satisfied", version: "7.4.2", constraint: ">= 7.2.0", want: true},
		{name: "build metadata", version: "7.4.2-54", constraint: ">= 7.4.0", want: true},
		{name: "not satisfied", version: "6.4.2", constraint: ">= 7.0.0", want: false},
		{name: "range", version: "7.2.4", constraint: ">= 7.0.0, < 7.4.0", want: true},
		{name: "garbage version", version: "unknown", constraint: ">= 7.0.0", want: false},
		{name: "garbage constraint", version: "7.0.0", constraint: "???", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClusterSupports(tt.version, tt.constraint); got != tt.want {
				t.Errorf("ClusterSupports(%q, %q) = %v, want %v", tt.version, tt.constraint, got, tt.want)
			}
		})
	}
}
