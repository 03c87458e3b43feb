package model

import (
	"encoding/json"
	"testing"
)

func TestGrantResponseUnmarshal(t *testing.T) {
	body := `{
		"news":   {"pub": "pub-token-0123456789", "sub": "sub-token-0123456789"},
		"ro":     {"pub": false, "sub": "sub-token-0123456789"},
		"empty":  {},
		"legacy": {"pub": true}
	}`

	var resp GrantResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	tests := []struct {
		channel string
		hasAny  bool
		pub     bool
		sub     bool
	}{
		{"news", true, true, true},
		{"ro", true, false, true},
		{"empty", false, false, false},
		{"legacy", true, true, false},
		{"missing", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			g := resp[tt.channel]
			if got := g.HasAny(); got != tt.hasAny {
				t.Errorf("HasAny() = %v, want %v", got, tt.hasAny)
			}
			if got := g.CanPub(); got != tt.pub {
				t.Errorf("CanPub() = %v, want %v", got, tt.pub)
			}
			if got := g.CanSub(); got != tt.sub {
				t.Errorf("CanSub() = %v, want %v", got, tt.sub)
			}
		})
	}
}

func TestGrantTokenInvalid(t *testing.T) {
	var g GrantToken
	if err := json.Unmarshal([]byte(`123`), &g); err == nil {
		t.Error("expected error for numeric grant token")
	}
}
