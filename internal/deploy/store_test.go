package deploy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	result := &domain.DeploymentResult{DeploymentID: "d-1", Success: true}
	if err := store.Save(ctx, result); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, "d-1")
	if err != nil || got.DeploymentID != "d-1" {
		t.Fatalf("get: %v, %v", got, err)
	}
	if err := store.Delete(ctx, "d-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "d-1"); !errors.Is(err, ErrDeploymentNotFound) {
		t.Fatalf("expected ErrDeploymentNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "d-1"); !errors.Is(err, ErrDeploymentNotFound) {
		t.Fatalf("expected ErrDeploymentNotFound on double delete, got %v", err)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("d-%d", i)
		go func() {
			defer wg.Done()
			store.Save(ctx, &domain.DeploymentResult{DeploymentID: id})
		}()
		go func() {
			defer wg.Done()
			store.Get(ctx, id)
		}()
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		if _, err := store.Get(ctx, fmt.Sprintf("d-%d", i)); err != nil {
			t.Fatalf("entry %d missing after concurrent writes: %v", i, err)
		}
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	store, err := NewRedisStore(srv.Addr(), "", 0)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	result := &domain.DeploymentResult{
		DeploymentID: "d-42",
		Success:      false,
		Pages:        []domain.PageDeploymentResult{{ID: 1, Slug: "home"}},
		Errors:       []string{"page about: boom"},
	}
	if err := store.Save(ctx, result); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "d-42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DeploymentID != "d-42" || len(got.Pages) != 1 || got.Pages[0].Slug != "home" {
		t.Fatalf("record did not round-trip: %+v", got)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("errors did not round-trip: %+v", got.Errors)
	}

	if err := store.Delete(ctx, "d-42"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "d-42"); !errors.Is(err, ErrDeploymentNotFound) {
		t.Fatalf("expected ErrDeploymentNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "d-42"); !errors.Is(err, ErrDeploymentNotFound) {
		t.Fatalf("expected ErrDeploymentNotFound on double delete, got %v", err)
	}
}

func TestRedisStoreConnectFailure(t *testing.T) {
	if _, err := NewRedisStore("127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected connection error")
	}
}
