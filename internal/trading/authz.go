package trading

import (
	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/types"
)

type Action string

const (
	ActionView    Action = "view"
	ActionCancel  Action = "cancel"
	ActionExecute Action = "execute"
)

// Authorize is the explicit authorization policy evaluated before each
// trade operation. Admins may execute any pending order; traders only
// operate on their own resources. Kept fully decoupled from the
// reconciliation logic.
func Authorize(actorID string, actorRole types.Role, action Action, ownerID string) error {
	if actorRole == types.RoleAdmin {
		return nil
	}
	if action == ActionExecute {
		return apperr.New(apperr.BusinessRule, apperr.CodeUnauthorized, "only admins may execute pending trades")
	}
	if actorID != ownerID {
		return apperr.New(apperr.BusinessRule, apperr.CodeUnauthorized, "not your trade")
	}
	return nil
}
