package runctx

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := WithProtocol(context.Background(), "pcr_setup")
	ctx = WithSessionID(ctx, "abc")
	ctx = WithManifest(ctx, "manifest.json")

	if name, ok := ProtocolFromContext(ctx); !ok || name != "pcr_setup" {
		t.Fatalf("protocol = %q, %v", name, ok)
	}
	if id, ok := SessionIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("session id = %q, %v", id, ok)
	}
	if path, ok := ManifestFromContext(ctx); !ok || path != "manifest.json" {
		t.Fatalf("manifest = %q, %v", path, ok)
	}
}

func TestEmptyValuesAreIgnored(t *testing.T) {
	base := context.Background()
	if got := WithProtocol(base, ""); got != base {
		t.Fatal("expected unchanged context for empty protocol")
	}
	if _, ok := SessionIDFromContext(WithSessionID(base, "")); ok {
		t.Fatal("expected no session id")
	}
}
