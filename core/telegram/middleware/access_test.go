package middleware

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

// accessContext stubs just what the middleware touches.
type accessContext struct {
	tele.Context
	sender *tele.User
}

func (c *accessContext) Sender() *tele.User { return c.sender }

func TestAdminOnlyMiddleware(t *testing.T) {
	var nextCalled, rejected bool
	next := func(tele.Context) error {
		nextCalled = true
		return nil
	}
	opts := AdminOptions{
		AdminIDs: []int64{10, 20},
		OnReject: func(tele.Context) error {
			rejected = true
			return nil
		},
	}
	h := AdminOnlyMiddleware(opts)(next)

	if err := h(&accessContext{sender: &tele.User{ID: 20}}); err != nil {
		t.Fatalf("admin call: %v", err)
	}
	if !nextCalled || rejected {
		t.Fatalf("admin should pass through, nextCalled=%v rejected=%v", nextCalled, rejected)
	}

	nextCalled, rejected = false, false
	if err := h(&accessContext{sender: &tele.User{ID: 30}}); err != nil {
		t.Fatalf("non-admin call: %v", err)
	}
	if nextCalled {
		t.Fatal("non-admin must not reach the handler")
	}
	if !rejected {
		t.Fatal("non-admin should hit the reject handler")
	}
}

func TestAdminOnlyMiddlewareEmptyListAllowsAll(t *testing.T) {
	var nextCalled bool
	h := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error {
		nextCalled = true
		return nil
	})
	if err := h(&accessContext{sender: &tele.User{ID: 99}}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if !nextCalled {
		t.Fatal("empty allow-list disables the check")
	}
}
