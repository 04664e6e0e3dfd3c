// Description: This file contains the context package which is used to set and retrieve data from the context.
package common

import (
	"context"
)

// PublishPrincipal is the authenticated publisher identity for one request.
// It is constructed by the publish authorization gate and never persisted.
type PublishPrincipal struct {
	Username  string
	Authority []string // permitted path prefixes
}

// ctxPrincipalKeyType represents the key type for the publish principal in the context.
type ctxPrincipalKeyType string

const ctxPrincipalKey ctxPrincipalKeyType = "HatchRepoPublishPrincipal"

// ctxRequestIdKeyType represents the key type for the request ID in the context.
type ctxRequestIdKeyType string

const ctxRequestIdKey ctxRequestIdKeyType = "HatchRepoRequestId"

// SetPrincipalInContext sets the publish principal in the provided context.
func SetPrincipalInContext(ctx context.Context, p *PublishPrincipal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

// PrincipalFromContext retrieves the publish principal from the provided context.
// Returns nil when the request was not authenticated.
func PrincipalFromContext(ctx context.Context) *PublishPrincipal {
	if p, ok := ctx.Value(ctxPrincipalKey).(*PublishPrincipal); ok {
		return p
	}
	return nil
}

// SetRequestIdInContext sets the request ID in the provided context.
func SetRequestIdInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestIdKey, id)
}

// RequestIdFromContext retrieves the request ID from the provided context.
func RequestIdFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxRequestIdKey).(string); ok {
		return id
	}
	return ""
}
