package core

import "testing"

func TestFlexibleUnmarshal(t *testing.T) {
	type endpoint struct {
		Addr string `json:"addr"`
		Port string `json:"port"`
	}
	type bdb struct {
		UID       string     `json:"uid"`
		Name      string     `json:"name"`
		Replicas  string     `json:"replicas"`
		Endpoints []endpoint `json:"endpoints"`
		Shards    int        `json:"shards_count"`
	}

	data := []byte(`{
		"uid": 7,
		"name": "db1",
		"replicas": true,
		"endpoints": [{"addr": "10.0.0.1", "port": 12000}],
		"shards_count": 2
	}`)

	var target bdb
	if err := FlexibleUnmarshal(data, &target); err != nil {
		t.Fatalf("FlexibleUnmarshal() error = %v", err)
	}
	if target.UID != "7" {
		t.Errorf("UID = %q, want numeric converted to string", target.UID)
	}
	if target.Replicas != "true" {
		t.Errorf("Replicas = %q, want bool converted to string", target.Replicas)
	}
	if len(target.Endpoints) != 1 || target.Endpoints[0].Port != "12000" {
		t.Errorf("Endpoints = %+v, want nested numeric converted", target.Endpoints)
	}
	if target.Shards != 2 {
		t.Errorf("Shards = %d, numeric fields must stay numeric", target.Shards)
	}
}

func TestFlexibleUnmarshal_RejectsNonPointer(t *testing.T) {
	var target struct{}
	if err := FlexibleUnmarshal([]byte(`{}`), target); err == nil {
		t.Error("non-pointer target must fail")
	}
}

func TestFlexibleUnmarshal_FractionalNumber(t *testing.T) {
	var target struct {
		Progress string `json:"progress"`
	}
	if err := FlexibleUnmarshal([]byte(`{"progress": 42.5}`), &target); err != nil {
		t.Fatalf("FlexibleUnmarshal() error = %v", err)
	}
	if target.Progress != "42.5" {
		t.Errorf("Progress = %q", target.Progress)
	}
}
