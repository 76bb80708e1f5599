package portal

import (
	jwtlib "github.com/golang-jwt/jwt/v5"

	"devisportal/internal/pkg/actor"
)

const (
	LoginPath     = "/login"
	AdminHomePath = "/dashboard"
	ClientHome    = "/home"
)

type Outcome int

const (
	Render Outcome = iota
	Redirect
)

type Decision struct {
	Outcome Outcome
	Path    string
}

// Guard decides whether a view requiring requiredRole may render for token.
// Signatures are not checked here.
func Guard(token, requiredRole string) Decision {
	role, ok := roleOf(token)
	if !ok {
		return Decision{Outcome: Redirect, Path: LoginPath}
	}
	if role == requiredRole {
		return Decision{Outcome: Render}
	}
	return Decision{Outcome: Redirect, Path: HomeFor(role)}
}

func HomeFor(role string) string {
	if role == actor.RoleAdmin {
		return AdminHomePath
	}
	return ClientHome
}

// roleOf decodes the role claim. A token without one is a client token.
func roleOf(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = actor.RoleClient
	}
	return role, true
}
