package services_test

import (
	"context"
	"testing"

	"arremsync/internal/services"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "abc")
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("unexpected run id %q ok=%v", id, ok)
	}
	if _, ok := services.RunIDFromContext(services.WithRunID(context.Background(), "")); ok {
		t.Fatal("expected empty run id to be ignored")
	}
}

func TestInstanceRoundTrip(t *testing.T) {
	ctx := services.WithInstance(context.Background(), "radarr_1")
	if name, ok := services.InstanceFromContext(ctx); !ok || name != "radarr_1" {
		t.Fatalf("unexpected instance %q ok=%v", name, ok)
	}
	if _, ok := services.InstanceFromContext(context.Background()); ok {
		t.Fatal("expected no instance on bare context")
	}
}
