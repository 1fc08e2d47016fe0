package auth

import (
	"net/http"
	"strings"

	"jobboard/pkg/errors"
)

// ExtractToken pulls the bearer token from connection metadata: the `token`
// query parameter first, then an `Authorization: Bearer <token>` header.
// This is the single credential-extraction step for the connection boundary;
// nothing downstream parses query strings.
func ExtractToken(r *http.Request) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1], nil
		}
	}

	return "", errors.Unauthenticated("authentication required")
}
