package service

import (
	"context"
	"sync"
	"testing"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
)

func TestFederationService_Resolve_CreatesOnFirstSight(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewFederationService(repo)

	user, err := svc.Resolve(context.Background(), domain.ProviderGoogle, "g-123")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user.GoogleID != "g-123" {
		t.Fatalf("binding not stored: %+v", user)
	}
	if user.Username != "" || user.PasswordHash != "" || user.FacebookID != "" {
		t.Fatalf("expected only the provider binding populated: %+v", user)
	}
}

func TestFederationService_Resolve_Idempotent(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewFederationService(repo)

	first, err := svc.Resolve(context.Background(), domain.ProviderFacebook, "fb-9")
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := svc.Resolve(context.Background(), domain.ProviderFacebook, "fb-9")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("resolve not idempotent: %s vs %s", first.ID, second.ID)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.users))
	}
}

func TestFederationService_Resolve_DoesNotOverwriteExisting(t *testing.T) {
	repo := newStubUserRepo()
	seeded, err := repo.Create(context.Background(), &domain.User{GoogleID: "g-7", Secret: "kept"})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	svc := NewFederationService(repo)

	user, err := svc.Resolve(context.Background(), domain.ProviderGoogle, "g-7")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user.ID != seeded.ID || user.Secret != "kept" {
		t.Fatalf("existing record was not returned unchanged: %+v", user)
	}
}

func TestFederationService_Resolve_ConcurrentFirstCallbacks(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewFederationService(repo)

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := svc.Resolve(context.Background(), domain.ProviderGoogle, "g-race")
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			ids[i] = user.ID
		}(i)
	}
	wg.Wait()

	if len(repo.users) != 1 {
		t.Fatalf("expected one surviving record, got %d", len(repo.users))
	}
	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("callers resolved to different users: %v", ids)
		}
	}
}

func TestFederationService_Resolve_EmptySubject(t *testing.T) {
	svc := NewFederationService(newStubUserRepo())

	if _, err := svc.Resolve(context.Background(), domain.ProviderGoogle, ""); err != domain.ErrProviderHandshake {
		t.Fatalf("expected ErrProviderHandshake, got %v", err)
	}
}

func TestFederationService_Resolve_UnknownProvider(t *testing.T) {
	svc := NewFederationService(newStubUserRepo())

	if _, err := svc.Resolve(context.Background(), "twitter", "x-1"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestFederationService_StoreFailurePropagates(t *testing.T) {
	repo := newStubUserRepo()
	repo.failWith = domain.ErrStoreUnavailable
	svc := NewFederationService(repo)

	if _, err := svc.Resolve(context.Background(), domain.ProviderGoogle, "g-1"); err != domain.ErrStoreUnavailable {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
