package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "analytics/a.json", want: "analytics/a.json"},
		{name: "simple prefix", prefix: "root", key: "analytics/a.json", want: "root/analytics/a.json"},
		{name: "prefix trailing slash", prefix: "root/", key: "analytics/a.json", want: "root/analytics/a.json"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/analytics/a.json", want: "root/analytics/a.json"},
		{name: "empty key lists whole prefix", prefix: "root", key: "", want: "root/"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestStripPrefixInvertsApplyPrefix(t *testing.T) {
	key := "analytics/health_analytics_u1_20240101_101010.json"
	for _, prefix := range []string{"", "root", "root/sub"} {
		if got := stripPrefix(prefix, applyPrefix(prefix, key)); got != key {
			t.Fatalf("prefix %q: got %q, want %q", prefix, got, key)
		}
	}
}

func TestIsConditionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "precondition", err: &smithy.GenericAPIError{Code: "PreconditionFailed"}, want: true},
		{name: "wrapped conflict", err: fmt.Errorf("put: %w", &smithy.GenericAPIError{Code: "ConditionalRequestConflict"}), want: true},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: false},
		{name: "plain", err: errors.New("network"), want: false},
	}
	for _, tt := range tests {
		if got := isConditionFailure(tt.err); got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
