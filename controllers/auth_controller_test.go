package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgr33n/kblog/middleware"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

func newAuthRouter() *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1/auth")
	api.POST("/register", Register)
	api.POST("/login", Login)
	api.POST("/logout", middleware.AuthRequired(), Logout)
	api.GET("/me", middleware.AuthRequired(), Me)
	return r
}

func TestRegisterLoginFlow(t *testing.T) {
	db := newTestDB(t)
	r := newAuthRouter()

	utils.SaveCode("lena@example.com", "123456", time.Minute)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "lena",
		"email":    "lena@example.com",
		"password": "correct-horse-battery",
		"code":     "123456",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.Preload("Role").Where("username = ?", "lena").First(&user).Error)
	assert.True(t, user.EmailVerified)
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)
	require.NotNil(t, user.Role)
	assert.Equal(t, models.RoleUser, user.Role.Name)

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "lena",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, ok := decodeData(t, w)["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	w = doJSON(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lena", decodeData(t, w)["username"])
}

func TestRegisterRejectsBadCode(t *testing.T) {
	newTestDB(t)
	r := newAuthRouter()

	utils.SaveCode("mia@example.com", "123456", time.Minute)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "mia",
		"email":    "mia@example.com",
		"password": "correct-horse-battery",
		"code":     "999999",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterCodeIsSingleUse(t *testing.T) {
	newTestDB(t)
	r := newAuthRouter()

	utils.SaveCode("nina@example.com", "654321", time.Minute)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "nina",
		"email":    "nina@example.com",
		"password": "correct-horse-battery",
		"code":     "654321",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Same code again: consumed on first use.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "nina2",
		"email":    "nina@example.com",
		"password": "correct-horse-battery",
		"code":     "654321",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := newTestDB(t)
	r := newAuthRouter()

	hash, err := utils.HashPassword("right-password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Username:     "oscar",
		Email:        "oscar@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}).Error)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "oscar",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := newTestDB(t)
	r := newAuthRouter()
	_, token := createUser(t, db, "pavel")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
