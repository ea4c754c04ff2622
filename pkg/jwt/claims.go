package jwt

import "github.com/golang-jwt/jwt/v5"

type APIClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Role string

const (
	RoleViewer     Role = "viewer"
	RoleCompetitor Role = "competitor"
	RoleOwner      Role = "owner"
)
