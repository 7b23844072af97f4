package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/maua/florist-api/configs"
	"github.com/maua/florist-api/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func testConfig() configs.Config {
	var cfg configs.Config
	cfg.Security.JWTSecret = "jwt-secret"
	cfg.Security.Issuer = "florist-api"
	cfg.Security.Audience = "florist-admin"
	return cfg
}

func signToken(t *testing.T, cfg configs.Config, perms []string, mutate func(jwt.MapClaims)) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":      cfg.Security.Issuer,
		"aud":      cfg.Security.Audience,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Hour).Unix(),
		"clientID": "shop-admin",
		"perms":    perms,
	}
	if mutate != nil {
		mutate(claims)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Security.JWTSecret))
	require.NoError(t, err)
	return s
}

func TestAuthz_Require(t *testing.T) {
	cfg := testConfig()
	r := gin.New()
	r.GET("/admin", NewAuthz(cfg).Require(security.PermOrdersRead), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ClientIDKey))
	})

	call := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("Bearer " + signToken(t, cfg, []string{security.PermOrdersRead}, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shop-admin", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	wrongAud := signToken(t, cfg, []string{security.PermOrdersRead}, func(m jwt.MapClaims) { m["aud"] = "someone-else" })
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+wrongAud).Code)

	expired := signToken(t, cfg, []string{security.PermOrdersRead}, func(m jwt.MapClaims) {
		m["exp"] = time.Now().Add(-time.Hour).Unix()
	})
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+expired).Code)

	w = call("Bearer " + signToken(t, cfg, []string{security.PermCatalogWrite}, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "insufficient_scope")
}

func TestCryptoVerify(t *testing.T) {
	cs, err := security.NewCryptoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	r := gin.New()
	r.POST("/hook", NewCryptoVerify(cs).CryptoVerify(), func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})

	body := []byte(`{"depositId":"d-1","status":"COMPLETED"}`)
	send := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
		if sig != "" {
			req.Header.Set(SignatureHeader, sig)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(cs.Sign(body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(body), w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, send("").Code)
	assert.Equal(t, http.StatusUnauthorized, send(cs.Sign([]byte("other"))).Code)
}

func TestCryptoVerify_Disabled(t *testing.T) {
	r := gin.New()
	r.POST("/hook", NewCryptoVerify(nil).CryptoVerify(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogging_RestoresBodyAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Logging(slogTo(&buf)))
	r.POST("/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "text/plain", b)
	})

	body := `{"phoneNumber":"243900000123","token":"tok-value-xyz"}`
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, body, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Contains(t, buf.String(), `*********123`)
	assert.NotContains(t, buf.String(), "243900000123")
	assert.NotContains(t, buf.String(), "tok-value-xyz")
}

func TestLogging_RejectsOversizedBody(t *testing.T) {
	oversized := `{"note":"` + strings.Repeat("x", MaxRequestBody) + `"}`
	cases := map[string]int64{
		"declared length": int64(len(oversized)),
		"chunked":         -1,
	}
	for name, length := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			r := gin.New()
			r.Use(Logging(slogTo(io.Discard)))
			r.POST("/orders", func(c *gin.Context) { called = true })

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(oversized))
			req.Header.Set("Content-Type", "application/json")
			req.ContentLength = length
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			assert.JSONEq(t, `{"message":"Request Entity Too Large"}`, w.Body.String())
			assert.False(t, called)
		})
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "***", maskPhone("12"))
	assert.Equal(t, "****567", maskPhone("1234567"))
}

func slogTo(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, nil))
}
