//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"sodai-platform/internal/domain"
)

// --- Account Model Tests ---

func TestNewAccount(t *testing.T) {
	t.Run("should create a new account successfully", func(t *testing.T) {
		startTime := time.Now()
		acc, err := NewAccount("acc-1", "Ayşe Yılmaz")

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if acc.ID != "acc-1" {
			t.Errorf("expected id 'acc-1', got %s", acc.ID)
		}
		if acc.Credits != 0 {
			t.Errorf("expected zero credits before the grant, got %d", acc.Credits)
		}
		if time.Since(startTime) > time.Second {
			t.Error("CreatedAt timestamp is too far from current time")
		}
	})

	t.Run("should fail with empty id", func(t *testing.T) {
		_, err := NewAccount("", "Ayşe")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

// --- Transaction Model Tests ---

func TestNewTransaction(t *testing.T) {
	t.Run("usage must be negative", func(t *testing.T) {
		if _, err := NewTransaction("acc-1", 1, TransactionUsage, "x", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("positive usage accepted: %v", err)
		}
		if _, err := NewTransaction("acc-1", -1, TransactionUsage, "x", ""); err != nil {
			t.Errorf("negative usage rejected: %v", err)
		}
	})

	t.Run("grants must be positive", func(t *testing.T) {
		if _, err := NewTransaction("acc-1", -5, TransactionPurchase, "x", "pay-1"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("negative purchase accepted: %v", err)
		}
		if _, err := NewTransaction("acc-1", -5, TransactionBonus, "x", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("negative bonus accepted: %v", err)
		}
	})

	t.Run("zero amount and unknown types are rejected", func(t *testing.T) {
		if _, err := NewTransaction("acc-1", 0, TransactionBonus, "x", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("zero amount accepted: %v", err)
		}
		if _, err := NewTransaction("acc-1", 1, TransactionType("refund"), "x", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("unknown type accepted: %v", err)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, err := NewTransaction("acc-1", 1, TransactionBonus, "x", "")
		if err != nil {
			t.Fatal(err)
		}
		b, err := NewTransaction("acc-1", 1, TransactionBonus, "x", "")
		if err != nil {
			t.Fatal(err)
		}
		if a.ID == b.ID {
			t.Error("consecutive transactions share an id")
		}
	})
}

// --- Payment Session Tests ---

func TestNewPaymentSession(t *testing.T) {
	pkg := PackageByID("growth")
	if pkg == nil {
		t.Fatal("growth package missing from catalog")
	}

	t.Run("session snapshots the package terms", func(t *testing.T) {
		s, err := NewPaymentSession("acc-1", pkg, "conv-1", "tok-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if s.Status != SessionPending {
			t.Errorf("expected pending, got %s", s.Status)
		}
		if s.TotalCredits() != 520 {
			t.Errorf("expected 520 total credits, got %d", s.TotalCredits())
		}
		if s.Amount != "810.00" {
			t.Errorf("expected 810.00 amount, got %s", s.Amount)
		}
		if s.Terminal() {
			t.Error("fresh session must not be terminal")
		}
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		if _, err := NewPaymentSession("acc-1", pkg, "conv-1", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

// --- Catalog Tests ---

func TestCatalog(t *testing.T) {
	pkgs := Packages()
	if len(pkgs) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(pkgs))
	}

	cases := []struct {
		id      string
		credits int64
		bonus   int64
		priceTL string
	}{
		{"starter", 160, 0, "270.00"},
		{"growth", 480, 40, "810.00"},
		{"pro", 1600, 300, "2700.00"},
	}
	for _, c := range cases {
		p := PackageByID(c.id)
		if p == nil {
			t.Errorf("package %s missing", c.id)
			continue
		}
		if p.Credits != c.credits || p.BonusCredits != c.bonus || p.PriceTL != c.priceTL {
			t.Errorf("package %s terms wrong: %+v", c.id, p)
		}
	}

	if PackageByID("platinum") != nil {
		t.Error("unknown package id must return nil")
	}

	// returned slice is a copy, catalog stays immutable
	pkgs[0].Credits = 999
	if PackageByID("starter").Credits == 999 {
		t.Error("catalog mutated through the returned slice")
	}
}

// --- Generation Request Tests ---

func TestGenerationRequests(t *testing.T) {
	t.Run("copy request needs niche and platform", func(t *testing.T) {
		ok := CopyRequest{Niche: "kozmetik", Platform: "tiktok"}
		if err := ok.Validate(); err != nil {
			t.Errorf("valid request rejected: %v", err)
		}
		bad := CopyRequest{Platform: "tiktok"}
		if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("missing niche accepted: %v", err)
		}
	})

	t.Run("video request needs prompt and images", func(t *testing.T) {
		ok := VideoRequest{Prompt: "showcase", ImageURLs: []string{"https://x/img.jpg"}}
		if err := ok.Validate(); err != nil {
			t.Errorf("valid request rejected: %v", err)
		}
		if err := (VideoRequest{Prompt: "x"}).Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Error("missing images accepted")
		}
		if err := (VideoRequest{Prompt: "x", ImageURLs: []string{" "}}).Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Error("blank image url accepted")
		}
	})
}
