package api

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
)

type keyType string

const (
	userIDKey  keyType = "userID"
	emailKey   keyType = "email"
	sessionKey keyType = "session"
)

// ctxWithUserID adds the authenticated user ID to the context
func ctxWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ctxWithEmail adds the email claim of the access token to the context
func ctxWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// ctxWithSession adds the resolved lifecycle session to the context
func ctxWithSession(ctx context.Context, session lifecycle.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// ctxGetUserID retrieves the user ID from the context
func ctxGetUserID(ctx context.Context) (uuid.UUID, error) {
	if userID, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return userID, nil
	}
	return uuid.Nil, errors.New("user id not found in context")
}

func ctxGetEmail(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// ctxGetSession retrieves the session from the context
func ctxGetSession(ctx context.Context) (lifecycle.Session, error) {
	if session, ok := ctx.Value(sessionKey).(lifecycle.Session); ok {
		return session, nil
	}
	return lifecycle.Session{}, errors.New("session not found in context")
}
