package policy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
)

func TestAllowed(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	cases := []struct {
		name    string
		actor   Actor
		action  Action
		ownerID uuid.UUID
		want    bool
	}{
		{"user creates order", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionCreateOrder, owner, true},
		{"manager cannot create order", Actor{UserID: other, Role: enums.MemberRoleManager}, ActionCreateOrder, uuid.Nil, false},
		{"admin cannot create order", Actor{UserID: other, Role: enums.MemberRoleAdmin}, ActionCreateOrder, uuid.Nil, false},
		{"user cannot approve", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionApproveOrder, uuid.Nil, false},
		{"manager approves", Actor{UserID: other, Role: enums.MemberRoleManager}, ActionApproveOrder, uuid.Nil, true},
		{"admin rejects", Actor{UserID: other, Role: enums.MemberRoleAdmin}, ActionRejectOrder, uuid.Nil, true},
		{"owner cancels own order", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionCancelOrder, owner, true},
		{"user cannot cancel another's order", Actor{UserID: other, Role: enums.MemberRoleUser}, ActionCancelOrder, owner, false},
		{"manager cannot cancel another's order", Actor{UserID: other, Role: enums.MemberRoleManager}, ActionCancelOrder, owner, false},
		{"admin cannot cancel another's order", Actor{UserID: other, Role: enums.MemberRoleAdmin}, ActionCancelOrder, owner, false},
		{"manager overrides status", Actor{UserID: other, Role: enums.MemberRoleManager}, ActionOverrideStatus, uuid.Nil, true},
		{"user cannot override status", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionOverrideStatus, uuid.Nil, false},
		{"owner views own order", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionViewOrder, owner, true},
		{"user cannot view another's order", Actor{UserID: other, Role: enums.MemberRoleUser}, ActionViewOrder, owner, false},
		{"manager views any order", Actor{UserID: other, Role: enums.MemberRoleManager}, ActionViewOrder, owner, true},
		{"user cannot list all orders", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionListAllOrders, uuid.Nil, false},
		{"manager records tracking", Actor{UserID: other, Role: enums.MemberRoleManager}, ActionRecordTracking, uuid.Nil, true},
		{"user cannot record tracking", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionRecordTracking, uuid.Nil, false},
		{"only owner pays", Actor{UserID: owner, Role: enums.MemberRoleUser}, ActionPayOrder, owner, true},
		{"admin cannot pay another's order", Actor{UserID: other, Role: enums.MemberRoleAdmin}, ActionPayOrder, owner, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allowed(tc.actor, tc.action, tc.ownerID); got != tc.want {
				t.Fatalf("Allowed(%v, %s, %s) = %v, want %v", tc.actor, tc.action, tc.ownerID, got, tc.want)
			}
		})
	}
}

func TestRequireUnauthenticated(t *testing.T) {
	err := Require(Actor{}, ActionCreateOrder, uuid.Nil)
	if err == nil {
		t.Fatal("expected error for missing identity")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireForbidden(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: enums.MemberRoleUser}
	err := Require(actor, ActionApproveOrder, uuid.Nil)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireUnknownRole(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: enums.MemberRole("ghost")}
	err := Require(actor, ActionCreateOrder, uuid.Nil)
	if err == nil {
		t.Fatal("expected forbidden error for unknown role")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
}
