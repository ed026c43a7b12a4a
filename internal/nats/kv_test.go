package nats

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
)

func TestSessionKey(t *testing.T) {
	key := SessionKey("user@example.com", "2b1f.../id")

	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		t.Fatalf("SessionKey() = %q, want 3 tokens", key)
	}
	if parts[0] != "sess" {
		t.Errorf("prefix = %q, want sess", parts[0])
	}
	for _, r := range key {
		valid := r == '.' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !valid {
			t.Errorf("SessionKey() contains invalid rune %q", r)
		}
	}

	filter := SessionFilter("user@example.com")
	if !strings.HasPrefix(key, strings.TrimSuffix(filter, "*")) {
		t.Errorf("key %q does not match filter %q", key, filter)
	}
	if SessionKey("alice", "s1") == SessionKey("bob", "s1") {
		t.Error("keys for different owners collide")
	}
}

func TestProfileKeyCanonicalID(t *testing.T) {
	var numeric model.ProfileID
	if err := numeric.UnmarshalJSON([]byte("1700000000000")); err != nil {
		t.Fatal(err)
	}
	str := model.NewProfileID("1700000000000")

	if ProfileKey("alice", numeric) != ProfileKey("alice", str) {
		t.Error("numeric and string forms of the same id map to different keys")
	}
}

func TestIsRevisionConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"key exists", jetstream.ErrKeyExists, true},
		{"wrapped key exists", fmt.Errorf("update: %w", jetstream.ErrKeyExists), true},
		{"wrong last sequence", &jetstream.APIError{Code: 400, ErrorCode: jetstream.JSErrCodeStreamWrongLastSequence}, true},
		{"other api error", &jetstream.APIError{Code: 503, ErrorCode: jetstream.JSErrCodeJetStreamNotEnabled}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRevisionConflict(tt.err); got != tt.want {
				t.Errorf("isRevisionConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}
