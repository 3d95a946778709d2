package identity

import (
	"context"
	"testing"

	"github.com/hmdp-next/internal/models"
)

func TestWithUserRoundTrip(t *testing.T) {
	ctx := WithUser(context.Background(), &models.UserDTO{ID: 5, NickName: "n"})
	user, ok := FromContext(ctx)
	if !ok || user.ID != 5 {
		t.Fatalf("expected user 5, got %+v ok=%v", user, ok)
	}
	if UserID(ctx) != 5 {
		t.Fatalf("user id want 5 got %d", UserID(ctx))
	}
}

func TestFromContextRejectsAnonymous(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("anonymous context should not carry a user")
	}
	ctx := WithUser(context.Background(), &models.UserDTO{ID: 0})
	if _, ok := FromContext(ctx); ok {
		t.Fatalf("user with zero id should be rejected")
	}
	if UserID(WithUser(context.Background(), nil)) != 0 {
		t.Fatalf("nil user should resolve to 0")
	}
}
