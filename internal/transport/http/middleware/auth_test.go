package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/usecase"
)

type stubVerifier struct {
	claims    *domain.TokenClaims
	err       error
	decodes   int
	lastToken string
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (*domain.TokenClaims, error) {
	s.lastToken = token
	return s.claims, s.err
}

func (s *stubVerifier) DecodeToken(string) (*domain.TokenClaims, error) {
	s.decodes++
	return &domain.TokenClaims{UserID: "claimed"}, nil
}

func newAuthRouter(t *testing.T, verifier TokenVerifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/me", RequireAuth(verifier, zaptest.NewLogger(t)), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		userID, _ := GetAuthenticatedUserID(c)
		c.String(http.StatusOK, claims.Username+"/"+userID)
	})
	return router
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	verifier := &stubVerifier{claims: &domain.TokenClaims{UserID: "u-1", Username: "alice"}}
	router := newAuthRouter(t, verifier)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer  abc.def.ghi ")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "alice/u-1" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if verifier.lastToken != "abc.def.ghi" {
		t.Fatalf("expected trimmed token, got %q", verifier.lastToken)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		err     error
		status  int
		decodes int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer  ", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer abc", err: usecase.ErrInvalidAccessToken, status: http.StatusUnauthorized, decodes: 1},
		{name: "expired token", header: "Bearer abc", err: usecase.ErrExpiredAccessToken, status: http.StatusUnauthorized, decodes: 1},
		{name: "unexpected error", header: "Bearer abc", err: context.DeadlineExceeded, status: http.StatusInternalServerError, decodes: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := &stubVerifier{err: tc.err}
			router := newAuthRouter(t, verifier)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if verifier.decodes != tc.decodes {
				t.Fatalf("expected %d decode calls, got %d", tc.decodes, verifier.decodes)
			}
		})
	}
}
