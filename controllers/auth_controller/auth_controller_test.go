package auth_controller

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/utils/jwt_parse"
	"github.com/joy095/travelmint/utils/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMailer struct{}

func (nopMailer) VerifyEmail(context.Context, string, string, string) error { return nil }
func (nopMailer) ResetPassword(context.Context, string, string, string, time.Duration) error {
	return nil
}

func newRouter(ac *AuthController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/signup", ac.Signup)
	r.POST("/login", ac.Login)
	r.GET("/logout", ac.Logout)
	r.GET("/verify-email", ac.VerifyEmail)
	r.POST("/reset-password", ac.ResetPassword)
	return r
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSignupValidation(t *testing.T) {
	signer := tokens.NewSigner("email-secret", "reset-secret")
	r := newRouter(NewAuthController(nil, nopMailer{}, signer, "access", "https://travelmint.example"))

	for _, body := range []string{
		`{}`,
		`{"username":"asha","email":"asha@example.com","password":"pw"}`,
		`{"username":"  ","email":"asha@example.com","password":"pw","phone":"98"}`,
		`not json`,
	} {
		w := send(r, http.MethodPost, "/signup", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "All fields are required!")
	}
}

func TestSignupRejectsBadWords(t *testing.T) {
	r := newRouter(NewAuthController(nil, nopMailer{}, tokens.NewSigner("e", "r"), "access", "https://travelmint.example"))

	w := send(r, http.MethodPost, "/signup", `{"username":"bastard","email":"b@example.com","password":"pw","phone":"98"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "inappropriate language")
}

func TestSignupMisconfigured(t *testing.T) {
	r := newRouter(NewAuthController(nil, nopMailer{}, tokens.NewSigner("e", "r"), "access", ""))

	w := send(r, http.MethodPost, "/signup", `{"username":"asha","email":"asha@example.com","password":"pw","phone":"98"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Server misconfigured")
}

func TestLoginValidation(t *testing.T) {
	r := newRouter(NewAuthController(nil, nopMailer{}, tokens.NewSigner("e", "r"), "access", "http://localhost"))
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/login", `{"email":"a@b.c"}`).Code)
}

func TestLogoutWithoutSessionClearsCookie(t *testing.T) {
	r := newRouter(NewAuthController(nil, nopMailer{}, tokens.NewSigner("e", "r"), "access", "https://travelmint.example"))

	w := send(r, http.MethodGet, "/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	cookie := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, jwt_parse.AccessTokenCookie+"="))
	assert.Contains(t, cookie, "Max-Age=0")
	assert.Contains(t, cookie, "Secure")
}

func TestEmailLinksRejectBadTokens(t *testing.T) {
	signer := tokens.NewSigner("email-secret", "reset-secret")
	r := newRouter(NewAuthController(nil, nopMailer{}, signer, "access", "https://travelmint.example"))

	verifyToken, err := signer.Sign(uuid.New(), "asha@example.com", tokens.ScopeVerify, time.Minute)
	require.NoError(t, err)
	expired, err := signer.Sign(uuid.New(), "asha@example.com", tokens.ScopeVerify, -time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/verify-email?token=garbage", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/verify-email?token="+expired, "").Code)

	// A verification token must not reset a password.
	w := send(r, http.MethodPost, "/reset-password", `{"token":"`+verifyToken+`","newPassword":"n3w-pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")

	w = send(r, http.MethodPost, "/reset-password", `{"token":"`+verifyToken+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkBuildsFrontendURL(t *testing.T) {
	ac := NewAuthController(nil, nopMailer{}, nil, "access", "https://travelmint.example/")
	assert.Equal(t, "https://travelmint.example/verify-email?token=a%2Bb", ac.link("verify-email", "a+b"))
}
