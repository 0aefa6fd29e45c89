package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

type fakeLikeRepo struct{}

func (f *fakeLikeRepo) Add(context.Context, uuid.UUID, uuid.UUID) error    { return nil }
func (f *fakeLikeRepo) Remove(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeLikeRepo) LikedByUser(context.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]bool, error) {
	return map[uuid.UUID]bool{}, nil
}

func newPromoService(promo *model.Promo) *PromoService {
	return NewPromoService(&fakePromoRepo{promo: promo}, &fakeLikeRepo{}, &fakeActivationRepo{}, nil)
}

func validCreateRequest(mode model.PromoMode) CreatePromoRequest {
	req := CreatePromoRequest{
		Description: "a perfectly fine promo description",
		Mode:        mode,
	}
	switch mode {
	case model.PromoModeCommon:
		req.PromoCommon = strPtr("SAVE10")
		req.MaxCount = 100
	case model.PromoModeUnique:
		req.PromoUnique = []string{"AAA-1", "AAA-2", "AAA-3"}
	}
	return req
}

func TestCreateUniqueDerivesCapacityFromPool(t *testing.T) {
	svc := newPromoService(nil)

	promo, err := svc.Create(context.Background(), uuid.New(), validCreateRequest(model.PromoModeUnique))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if promo.MaxCount != 3 {
		t.Fatalf("expected max_count 3 from pool size, got %d", promo.MaxCount)
	}
	if !promo.Active {
		t.Fatal("promo without a window and with capacity must start active")
	}
}

func TestCreateCommonRequiresSharedCode(t *testing.T) {
	svc := newPromoService(nil)
	req := validCreateRequest(model.PromoModeCommon)
	req.PromoCommon = nil

	if _, err := svc.Create(context.Background(), uuid.New(), req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateRejectsInvertedAgeBounds(t *testing.T) {
	svc := newPromoService(nil)
	req := validCreateRequest(model.PromoModeCommon)
	req.Target = model.Target{AgeFrom: intPtr(40), AgeUntil: intPtr(20)}

	if _, err := svc.Create(context.Background(), uuid.New(), req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateComputesActiveFromWindow(t *testing.T) {
	svc := newPromoService(nil)
	req := validCreateRequest(model.PromoModeCommon)
	req.ActiveUntil = timePtr(time.Now().UTC().Add(-time.Hour))

	promo, err := svc.Create(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if promo.Active {
		t.Fatal("promo with a window entirely in the past must start inactive")
	}
}

func TestGetForCompanyRejectsForeignPromo(t *testing.T) {
	promo := testPromo(model.PromoModeCommon)
	svc := newPromoService(promo)

	if _, err := svc.GetForCompany(context.Background(), uuid.New(), promo.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestPatchUniqueCapacityIsFixed(t *testing.T) {
	promo := testPromo(model.PromoModeUnique)
	promo.PromoCommon = nil
	promo.MaxCount = 3
	svc := newPromoService(promo)

	_, err := svc.Patch(context.Background(), promo.CompanyID, promo.ID, PatchPromoRequest{
		MaxCount: intPtr(10),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPatchKeepsCapacityAboveUsage(t *testing.T) {
	promo := testPromo(model.PromoModeCommon)
	promo.UsedCount = 5
	svc := newPromoService(promo)

	_, err := svc.Patch(context.Background(), promo.CompanyID, promo.ID, PatchPromoRequest{
		MaxCount: intPtr(3),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListRejectsUnknownSort(t *testing.T) {
	svc := newPromoService(nil)

	_, _, err := svc.List(context.Background(), repository.PromoListFilter{
		CompanyID: uuid.New(),
		SortBy:    "description",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
