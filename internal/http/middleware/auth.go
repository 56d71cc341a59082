package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"edulift.app/membership/common/id"
	"edulift.app/membership/common/logger"
	"edulift.app/membership/internal/model"
)

type contextKey string

const identityContextKey contextKey = "identity"

var errNoToken = errors.New("no bearer token")

// Claims are minted by the identity provider. Subject holds the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and turns them into a
// model.Identity.
type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

func (a *Authenticator) Verify(token string) (model.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return model.Identity{}, err
	}

	userID, err := id.Parse(claims.Subject)
	if err != nil {
		return model.Identity{}, fmt.Errorf("token subject: %w", err)
	}
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		return model.Identity{}, errors.New("token carries no email")
	}
	return model.Identity{UserID: userID, Email: email}, nil
}

// Sign mints a token for the identity. Used by tests and local tooling.
func (a *Authenticator) Sign(identity model.Identity, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = strconv.FormatInt(identity.UserID, 10)
	if a.issuer != "" && claims.Issuer == "" {
		claims.Issuer = a.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:            identity.Email,
		RegisteredClaims: claims,
	}).SignedString(a.secret)
}

func RequireAuth(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		identity, err := auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(withIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present but never
// aborts. Invitation validation works for anonymous callers too.
func OptionalAuth(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}

		identity, err := auth.Verify(token)
		if err != nil {
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(withIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// GetIdentity returns the authenticated caller, or nil.
func GetIdentity(ctx context.Context) *model.Identity {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok {
		return nil
	}
	return &identity
}

func withIdentity(ctx context.Context, identity model.Identity) context.Context {
	ctx = context.WithValue(ctx, identityContextKey, identity)
	return logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(identity.UserID)})
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so GET requests may pass ?token= instead.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return token, nil
	}
	if c.Request.Method == http.MethodGet {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
	}
	return "", errNoToken
}
