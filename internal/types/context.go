package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID     ContextKey = "ctx_request_id"
	CtxUserID        ContextKey = "ctx_user_id"
	CtxActor         ContextKey = "ctx_actor"
	CtxDBTransaction ContextKey = "ctx_db_transaction"

	SystemUserID = "system"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// SetActor stores the authenticated actor and its user id in the context.
// Handlers read it back with GetActor and pass it explicitly to services.
func SetActor(ctx context.Context, actor Actor) context.Context {
	ctx = context.WithValue(ctx, CtxActor, actor)
	return SetUserID(ctx, actor.UserID)
}

// GetActor returns the actor set by the auth middleware
func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(CtxActor).(Actor)
	return actor, ok
}
