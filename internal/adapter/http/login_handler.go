package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/maua/florist-api/configs"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/security"
)

type TokenHandler struct {
	cfg     configs.Config
	clients security.Clients
	now     func() time.Time
}

func NewTokenHandler(cfg configs.Config, clients security.Clients) *TokenHandler {
	return &TokenHandler{cfg: cfg, clients: clients, now: time.Now}
}

type tokenReq struct {
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
	Scope        string `form:"scope" json:"scope"`
}

// POST /v1/token (form or JSON)
// Accepts: client_id, client_secret
// Optional: scope (space-separated subset of client's perms)
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBind(&req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	cl, ok := h.clients.Authenticate(req.ClientID, req.ClientSecret)
	if !ok {
		logging.From(c).Warn("token request rejected", "client_id", req.ClientID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	perms, ok := narrowScope(cl.Perms, req.Scope)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_scope"})
		return
	}

	now := h.now()
	claims := jwt.MapClaims{
		"iss":      h.cfg.Security.Issuer,              // issuer
		"aud":      h.cfg.Security.Audience,            // audience
		"iat":      now.Unix(),                         // issued at
		"nbf":      now.Unix(),                         // not before
		"exp":      now.Add(h.cfg.Security.TTL).Unix(), // expire
		"clientID": cl.ID,
		"perms":    perms,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.Security.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int64(h.cfg.Security.TTL / time.Second),
		"scope":        strings.Join(perms, " "),
	})
}

// narrowScope returns the requested subset of granted, or all of granted when
// scope is empty. Asking for a permission the client lacks fails.
func narrowScope(granted []string, scope string) ([]string, bool) {
	if strings.TrimSpace(scope) == "" {
		return granted, true
	}
	have := make(map[string]bool, len(granted))
	for _, p := range granted {
		have[p] = true
	}
	var out []string
	for _, p := range strings.Fields(scope) {
		if !have[p] {
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}
