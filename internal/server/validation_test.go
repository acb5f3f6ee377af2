package server

import (
	"errors"
	"testing"

	"subkeep/internal/models"
)

func errCodeOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apiError, got %T (%v)", err, err)
	}
	return apiErr.errCode
}

func TestNormalizeSubscription(t *testing.T) {
	tests := []struct {
		name     string
		sub      models.Subscription
		wantCode int
	}{
		{"remote ok", models.Subscription{Name: "airport", URL: "https://example.com/s"}, 0},
		{"local ok", models.Subscription{Name: "home", Content: "vmess://x"}, 0},
		{"blank name", models.Subscription{Name: "  ", URL: "https://example.com/s"}, ErrCodeInvalidName},
		{"bad name", models.Subscription{Name: "a b", URL: "https://example.com/s"}, ErrCodeInvalidName},
		{"bad source", models.Subscription{Name: "a", Source: "ftp", URL: "https://example.com/s"}, ErrCodeInvalidSource},
		{"remote without url", models.Subscription{Name: "a", Source: models.SourceRemote}, ErrCodeMissingRequired},
		{"relative url", models.Subscription{Name: "a", URL: "/sub"}, ErrCodeInvalidArgument},
		{"blank operator", models.Subscription{Name: "a", URL: "https://example.com", Process: []models.Operator{{Type: ""}}}, ErrCodeMissingRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := tt.sub
			err := normalizeSubscription(&sub)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := errCodeOf(t, err); got != tt.wantCode {
				t.Fatalf("error code = %d, want %d (%v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestNormalizeSubscriptionFillsDefaults(t *testing.T) {
	sub := models.Subscription{Name: " home ", Content: "vmess://x", Tags: []string{"a", " a ", "", "b"}}
	if err := normalizeSubscription(&sub); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if sub.Name != "home" || sub.Source != models.SourceLocal {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if len(sub.Tags) != 2 || sub.Tags[0] != "a" || sub.Tags[1] != "b" {
		t.Fatalf("expected deduplicated tags, got %v", sub.Tags)
	}
	if sub.Process == nil {
		t.Fatal("expected non-nil process list")
	}
}

func TestNormalizeCollectionDedupesMembers(t *testing.T) {
	col := models.Collection{Name: "all", Subscriptions: []string{"a", "b", "a"}}
	if err := normalizeCollection(&col); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(col.Subscriptions) != 2 {
		t.Fatalf("expected 2 members, got %v", col.Subscriptions)
	}

	bad := models.Collection{Name: "all", Subscriptions: []string{"ok", "not ok"}}
	if got := errCodeOf(t, normalizeCollection(&bad)); got != ErrCodeInvalidName {
		t.Fatalf("error code = %d, want %d", got, ErrCodeInvalidName)
	}
}

func TestNormalizeArtifact(t *testing.T) {
	artifact := models.Artifact{Name: "clash", Type: "SUB", Source: "airport"}
	if err := normalizeArtifact(&artifact); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if artifact.Type != models.ArtifactSubscription {
		t.Fatalf("expected legacy type to be canonicalized, got %q", artifact.Type)
	}

	missing := models.Artifact{Name: "clash", Type: models.ArtifactCollection}
	if got := errCodeOf(t, normalizeArtifact(&missing)); got != ErrCodeMissingRequired {
		t.Fatalf("error code = %d, want %d", got, ErrCodeMissingRequired)
	}

	badType := models.Artifact{Name: "clash", Type: "file", Source: "airport"}
	if got := errCodeOf(t, normalizeArtifact(&badType)); got != ErrCodeInvalidType {
		t.Fatalf("error code = %d, want %d", got, ErrCodeInvalidType)
	}
}
