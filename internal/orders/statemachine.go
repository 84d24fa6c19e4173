package orders

import (
	"fmt"

	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
)

var (
	ownerRoles  = []enums.ActorRole{enums.RoleShopOwner, enums.RoleAdmin, enums.RoleSystem}
	driverRoles = []enums.ActorRole{enums.RoleDriver, enums.RoleSystem, enums.RoleAdmin}
	assignRoles = []enums.ActorRole{enums.RoleSystem, enums.RoleDriver, enums.RoleAdmin}
)

// forwardTransitions is the delivery pipeline. Side exits to rejected and
// cancelled are handled separately because they apply from every
// non-terminal status.
var forwardTransitions = map[enums.OrderStatus]map[enums.OrderStatus][]enums.ActorRole{
	enums.OrderStatusPending: {
		enums.OrderStatusPreparing: ownerRoles,
		enums.OrderStatusAssigned:  assignRoles,
	},
	enums.OrderStatusPreparing: {
		enums.OrderStatusReady:    ownerRoles,
		enums.OrderStatusAssigned: assignRoles,
	},
	enums.OrderStatusReady: {
		enums.OrderStatusAssigned: assignRoles,
	},
	enums.OrderStatusAssigned: {
		enums.OrderStatusStarted: driverRoles,
		enums.OrderStatusPicked:  driverRoles,
	},
	enums.OrderStatusStarted: {
		enums.OrderStatusPicked: driverRoles,
	},
	enums.OrderStatusPicked: {
		enums.OrderStatusOutForDelivery: driverRoles,
	},
	enums.OrderStatusOutForDelivery: {
		enums.OrderStatusDelivered: driverRoles,
	},
}

// validateTransition checks the status pair and the acting role. The caller
// handles the from == to case; it never reaches here.
func validateTransition(from, to enums.OrderStatus, role enums.ActorRole) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("order is already %s", from))
	}

	var allowedRoles []enums.ActorRole
	switch to {
	case enums.OrderStatusRejected:
		allowedRoles = driverRoles
	case enums.OrderStatusCancelled:
		allowedRoles = ownerRoles
	default:
		allowedRoles = forwardTransitions[from][to]
		if allowedRoles == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move order from %s to %s", from, to))
		}
	}

	for _, allowed := range allowedRoles {
		if allowed == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden,
		fmt.Sprintf("role %s may not move an order to %s", role, to))
}
