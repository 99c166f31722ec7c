package v1

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
)

// requireActor reads the authenticated actor. It records an error on the
// context and returns false when the request carries none.
func requireActor(c *gin.Context) (types.Actor, bool) {
	actor, ok := types.GetActor(c.Request.Context())
	if !ok {
		c.Error(ierr.NewError("no authenticated actor").
			WithHint("Authentication is required").
			Mark(ierr.ErrPermissionDenied))
		return types.Actor{}, false
	}
	return actor, true
}

func requireParam(c *gin.Context, name, hint string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		c.Error(ierr.NewError(name + " is required").
			WithHint(hint).
			WithField(name).
			Mark(ierr.ErrValidation))
		return "", false
	}
	return value, true
}
