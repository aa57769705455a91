package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY
// Tokens are issued by the auth service and signed with a shared HS256
// secret. This service only verifies them.
// ══════════════════════════════════════════════════════════════════════════════

var (
	errMissingToken = shared.NewDomainError("auth", "Verify", shared.ErrUnauthorized, "missing bearer token")
	errInvalidToken = shared.NewDomainError("auth", "Verify", shared.ErrUnauthorized, "invalid or expired token")
	errWrongRole    = shared.NewDomainError("auth", "Authorize", shared.ErrForbidden, "insufficient role")
)

// Claims are the token claims this service reads.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig configures token verification.
type AuthConfig struct {
	Secret string
	Issuer string // empty skips the iss check
	Leeway time.Duration
}

// Authenticator verifies bearer tokens.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator creates an Authenticator for HS256 tokens.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Authenticator{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify parses and validates a raw token and returns the caller identity.
func (a *Authenticator) Verify(raw string) (shared.Identity, error) {
	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return shared.Identity{}, shared.WrapError("auth", "Verify", shared.ErrUnauthorized, "invalid or expired token", err)
	}

	userID, err := shared.NewUserID(claims.Subject)
	if err != nil {
		return shared.Identity{}, errInvalidToken
	}

	role := shared.ParseRole(claims.Role)
	if !role.IsValid() {
		return shared.Identity{}, errInvalidToken
	}

	return shared.Identity{UserID: userID, Role: role}, nil
}

// requireAuth verifies the bearer token and, when roles are given, that the
// caller holds one of them. Admins pass every role check.
func (s *Server) requireAuth(next http.HandlerFunc, roles ...shared.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			s.writeError(w, r, errMissingToken)
			return
		}

		if s.deps.Auth == nil {
			s.writeError(w, r, errors.New("authenticator not configured"))
			return
		}

		id, err := s.deps.Auth.Verify(raw)
		if err != nil {
			logger.FromContext(r.Context()).Debug("token rejected", logger.Err(err))
			s.writeError(w, r, errInvalidToken)
			return
		}

		if len(roles) > 0 && !id.HasRole(roles...) {
			s.writeError(w, r, errWrongRole)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyIdentity, id)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(
			logger.UserID(id.UserID.String()),
			logger.Role(string(id.Role)),
		))
		next(w, r.WithContext(ctx))
	})
}

// identityFrom returns the identity stored by requireAuth.
func identityFrom(ctx context.Context) shared.Identity {
	id, _ := ctx.Value(contextKeyIdentity).(shared.Identity)
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
