package testutil

import (
	"errors"
	"testing"

	apperrors "spendsense/internal/errors"
	"spendsense/internal/models"
)

// AssertAppError fails unless err is an *AppError carrying code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected %s, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected %s, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertBadges compares awarded badge ids in order. A nil got is an error,
// callers always receive a list.
func AssertBadges(t *testing.T, got []models.BadgeID, want ...models.BadgeID) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected badges %v, got nil", want)
	}
	if len(got) != len(want) {
		t.Fatalf("expected badges %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("badge %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
