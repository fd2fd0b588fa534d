package statistics

import (
	stderrors "errors"
	"testing"

	apperrors "goethos/internal/errors"
)

func TestCohenKappa_PerfectAgreement(t *testing.T) {
	a := []string{"care", "duty", "care", "fair"}
	res, err := CohenKappa(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kappa != 1 {
		t.Errorf("expected kappa 1, got %f", res.Kappa)
	}
	if res.Interpretation != "almost_perfect" {
		t.Errorf("expected almost_perfect, got %s", res.Interpretation)
	}
}

func TestCohenKappa_KnownValue(t *testing.T) {
	// 50 items: both yes 20, A yes/B no 5, A no/B yes 10, both no 15.
	var a, b []string
	add := func(n int, la, lb string) {
		for i := 0; i < n; i++ {
			a = append(a, la)
			b = append(b, lb)
		}
	}
	add(20, "yes", "yes")
	add(5, "yes", "no")
	add(10, "no", "yes")
	add(15, "no", "no")

	res, err := CohenKappa(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// po = 0.7, pe = 0.5*0.6 + 0.5*0.4 = 0.5, kappa = 0.4
	if diff := res.Kappa - 0.4; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected kappa 0.4, got %f", res.Kappa)
	}
	if res.Interpretation != "fair" {
		t.Errorf("expected fair, got %s", res.Interpretation)
	}
}

func TestCohenKappa_InvalidInput(t *testing.T) {
	if _, err := CohenKappa([]string{"a"}, []string{"a", "b"}); !stderrors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT for length mismatch, got %v", err)
	}
	if _, err := CohenKappa(nil, nil); !stderrors.Is(err, apperrors.ErrInsufficientSample) {
		t.Errorf("expected INSUFFICIENT_SAMPLE for no items, got %v", err)
	}
	if _, err := CohenKappa([]string{"a", ""}, []string{"a", "b"}); !stderrors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty label, got %v", err)
	}
}
