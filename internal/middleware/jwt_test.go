package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/roomdesk-api/internal/models"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
)

type validatorMock struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (m *validatorMock) ValidateToken(token string) (*models.JWTClaims, error) {
	m.token = token
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func runAuth(t *testing.T, header string, mock *validatorMock) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c.Request = req
	Authenticate(mock)(c)
	return w, c
}

func TestAuthenticateSetsClaims(t *testing.T) {
	mock := &validatorMock{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStaff}}
	w, c := runAuth(t, "Bearer token-123", mock)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token-123", mock.token)
	claims := ClaimsFromContext(c)
	require.NotNil(t, claims)
	assert.Equal(t, "u1", claims.UserID)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	w, c := runAuth(t, "", &validatorMock{})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	w, _ := runAuth(t, "Token abc", &validatorMock{})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	mock := &validatorMock{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")}
	w, _ := runAuth(t, "Bearer bad", mock)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesAllows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	c.Request = req
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})

	RequireRoles(models.RoleAdmin, models.RoleStaff)(c)
	assert.False(t, c.IsAborted())
}

func TestRequireRolesForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	c.Request = req
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleMaintenance})

	RequireRoles(models.RoleAdmin)(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	c.Request = req

	RequireRoles(models.RoleAdmin)(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
