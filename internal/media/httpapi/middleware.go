package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const ownerKey contextKey = "owner_id"

// ownerFromContext returns the authenticated owner id set by withAuth.
func ownerFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ownerKey).(uuid.UUID)
	return id, ok
}

// withAuth extracts the owner identity from a bearer token. Only the subject
// claim is used; owners stay opaque ids everywhere past this point.
func withAuth(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := parseBearerSubject(r.Header.Get("Authorization"), secret)
		if err != nil {
			writeErrorJSON(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, ownerID)))
	})
}

func parseBearerSubject(header string, secret []byte) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("missing bearer token")
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token: %w", err)
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject is not a uuid: %w", err)
	}
	return ownerID, nil
}
