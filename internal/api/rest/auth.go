package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AliShanawar/sitelink/internal/models"
)

// AuthService signs users in and out. A successful login installs the
// bearer token on the shared client.
type AuthService struct {
	c *Client
}

func NewAuthService(c *Client) AuthService { return AuthService{c: c} }

// Claims are the fields this client reads out of the session token. The
// token is decoded without verification: the signing secret never leaves
// the server, and the server re-checks the signature on every request.
type Claims struct {
	UserID    string
	Name      string
	ExpiresAt time.Time
}

func (s AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	var user models.User
	_, err := s.c.do(ctx, http.MethodPost, "/api/register", nil, req, &user)
	return user, err
}

func (s AuthService) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	var out models.LoginResponse
	_, err := s.c.do(ctx, http.MethodPost, "/api/login", nil, models.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return models.LoginResponse{}, err
	}
	s.c.SetToken(out.Token)
	return out, nil
}

// Logout drops the stored token. Purely local; the token simply expires
// server-side.
func (s AuthService) Logout() {
	s.c.SetToken("")
}

// ParseToken extracts the claims this client cares about from a session
// token.
func ParseToken(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("parse token: unexpected claims type")
	}

	var out Claims
	if v, ok := mc["user_id"].(string); ok {
		out.UserID = v
	}
	if v, ok := mc["name"].(string); ok {
		out.Name = v
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
