package model

import (
	"encoding/json"
	"testing"
)

func TestNewDeliveryFrame(t *testing.T) {
	f, err := NewDeliveryFrame("news", map[string]any{"a": 6})
	if err != nil {
		t.Fatalf("NewDeliveryFrame() error = %v", err)
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"chan":"news","msg":{"a":6}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestServerFrameIsDelivery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"delivery", `{"chan":"news","msg":{"x":1}}`, true},
		{"id", `{"id":"abc"}`, false},
		{"auth", `{"auth":true}`, false},
		{"chan without msg", `{"chan":"news"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f ServerFrame
			if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if got := f.IsDelivery(); got != tt.want {
				t.Errorf("IsDelivery() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvelope(t *testing.T) {
	env := NewEnvelope(json.RawMessage(`{"x":1}`), "sess-1")
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"msg":{"x":1},"sender":"sess-1"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
