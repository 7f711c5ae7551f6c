package policy

import (
	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
)

// Action is a guarded operation on an order.
type Action string

const (
	ActionCreateOrder    Action = "order:create"
	ActionApproveOrder   Action = "order:approve"
	ActionRejectOrder    Action = "order:reject"
	ActionCancelOrder    Action = "order:cancel"
	ActionOverrideStatus Action = "order:override_status"
	ActionViewOrder      Action = "order:view"
	ActionListAllOrders  Action = "order:list_all"
	ActionRecordTracking Action = "tracking:record"
	ActionEditTracking   Action = "tracking:edit"
	ActionPayOrder       Action = "payment:create_intent"
)

type capability struct {
	roles      map[enums.MemberRole]bool
	ownerAllow bool
}

// Capabilities maps each action to the roles allowed to perform it.
// ownerAllow grants the action to the order's owner regardless of role.
var capabilities = map[Action]capability{
	ActionCreateOrder: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleUser: true,
		},
	},
	ActionApproveOrder: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleManager: true,
			enums.MemberRoleAdmin:   true,
		},
	},
	ActionRejectOrder: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleManager: true,
			enums.MemberRoleAdmin:   true,
		},
	},
	ActionCancelOrder: {
		ownerAllow: true,
	},
	ActionOverrideStatus: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleManager: true,
			enums.MemberRoleAdmin:   true,
		},
	},
	ActionViewOrder: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleManager: true,
			enums.MemberRoleAdmin:   true,
		},
		ownerAllow: true,
	},
	ActionListAllOrders: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleManager: true,
			enums.MemberRoleAdmin:   true,
		},
	},
	ActionRecordTracking: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleManager: true,
			enums.MemberRoleAdmin:   true,
		},
	},
	ActionEditTracking: {
		roles: map[enums.MemberRole]bool{
			enums.MemberRoleManager: true,
			enums.MemberRoleAdmin:   true,
		},
	},
	ActionPayOrder: {
		ownerAllow: true,
	},
}

// Actor is the authenticated principal attempting an action.
type Actor struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

// Allowed reports whether the actor may perform the action. ownerID is the
// owning user of the target resource; pass uuid.Nil when ownership does not apply.
func Allowed(actor Actor, action Action, ownerID uuid.UUID) bool {
	cap, ok := capabilities[action]
	if !ok {
		return false
	}
	if cap.roles[actor.Role] {
		return true
	}
	if cap.ownerAllow && ownerID != uuid.Nil && actor.UserID == ownerID {
		return true
	}
	return false
}

// Require returns a typed forbidden error when the actor may not perform the action.
func Require(actor Actor, action Action, ownerID uuid.UUID) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	if !Allowed(actor, action, ownerID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "action not permitted for role")
	}
	return nil
}
