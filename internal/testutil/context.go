package testutil

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/types"
)

// SetupContext returns a context carrying the actor and a request id
func SetupContext(actor types.Actor) context.Context {
	ctx := context.Background()
	ctx = types.SetActor(ctx, actor)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}

// Landlord and Tenant build actors for tests
func Landlord(id string) types.Actor {
	return types.Actor{UserID: id, Role: types.RoleLandlord, Email: id + "@example.com"}
}

func Tenant(id string) types.Actor {
	return types.Actor{UserID: id, Role: types.RoleTenant, Email: id + "@example.com"}
}
