package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// tokenRequest carries credentials for /api/auth/token.
type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse follows the OAuth2 password grant shape.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// signJWT creates a signed HS256 token for the user.
func signJWT(user *models.User, config *common.AuthConfig, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.UserID,
		Issuer:    config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(config.GetTokenExpiry())),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// validateJWT parses and validates a token signed with the configured secret.
func validateJWT(tokenString string, config *common.AuthConfig) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// handleAuthRegister creates an account. POST /api/auth/register
func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.app.UserService.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, user)
}

// handleAuthToken exchanges credentials for a bearer token.
// Accepts a JSON body or an OAuth2-style form post.
func (s *Server) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, "Invalid form body", "validation_error")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if !DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "username and password are required", "validation_error")
		return
	}

	user, err := s.app.UserService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	token, err := signJWT(user, &s.app.Config.Auth, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign token")
		WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	s.logger.Info().Str("user_id", user.UserID).Msg("Issued access token")
	WriteData(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.app.Config.Auth.GetTokenExpiry().Seconds()),
	})
}

// handleAuthMe returns the caller's profile. GET /api/auth/me
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	s.handleUserGet(w, r)
}
