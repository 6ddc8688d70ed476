package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/middleware"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

const (
	tokenDuration    = 24 * time.Hour
	codeTTL          = 10 * time.Minute
	emailCooldown    = time.Minute
	verifyCodeLength = 6
)

type sendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendEmailCode issues a verification code for registration. Rate limited
// per address so the mailer cannot be used as a spam relay.
func SendEmailCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "a valid email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !utils.EmailCooldownTrySet(email, emailCooldown) {
		utils.Error(c, http.StatusTooManyRequests, http.StatusTooManyRequests, "verification code was sent recently, try again later")
		return
	}

	code := utils.GenerateVerificationCode(verifyCodeLength)
	utils.SaveCode(email, code, codeTTL)

	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	if err := utils.SendMail(email, "Verify your email", body); err != nil {
		utils.Sugar.Errorf("send verification mail to %s failed: %v", email, err)
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to send verification email")
		return
	}
	utils.Success(c, gin.H{"sent": true})
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Code     string `json:"code" binding:"required"`
	FullName string `json:"full_name"`
}

// Register creates a new account after verifying the email code. New users
// always start with the USER role and no rank; the reputation engine
// promotes them later.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "invalid registration payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if !utils.VerifyAndConsumeCode(email, strings.TrimSpace(req.Code)) {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "invalid or expired verification code")
		return
	}

	db := config.DB()

	var existing int64
	db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&existing)
	if existing > 0 {
		utils.Error(c, http.StatusConflict, http.StatusConflict, "username or email already taken")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to process password")
		return
	}

	user := models.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		FullName:      utils.Sanitize(req.FullName),
		EmailVerified: true,
		IsActive:      true,
		RegisterIP:    c.ClientIP(),
	}
	var role models.Role
	if err := db.Where("name = ?", models.RoleUser).First(&role).Error; err == nil {
		user.RoleID = &role.ID
	}

	if err := db.Create(&user).Error; err != nil {
		utils.Sugar.Errorf("register %s failed: %v", username, err)
		utils.Error(c, http.StatusConflict, http.StatusConflict, "username or email already taken")
		return
	}

	utils.Success(c, gin.H{"id": user.ID, "username": user.Username})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "username and password are required")
		return
	}

	db := config.DB()

	var user models.User
	err := db.Preload("Role").
		Where("username = ? OR email = ?", req.Username, strings.ToLower(req.Username)).
		First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !user.IsActive {
		utils.Error(c, http.StatusForbidden, http.StatusForbidden, "account is disabled")
		return
	}

	roleName := models.RoleUser
	if user.Role != nil {
		roleName = user.Role.Name
	}
	token, err := utils.GenerateToken(user.ID, user.Username, roleName, tokenDuration)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to issue token")
		return
	}

	now := time.Now()
	db.Model(&user).Update("last_login", now)

	utils.Success(c, gin.H{
		"token":      token,
		"expires_in": int(tokenDuration.Seconds()),
		"user":       user,
	})
}

// Logout revokes the current token until its natural expiration.
func Logout(c *gin.Context) {
	raw := c.GetString("raw_token")
	if raw != "" {
		if claims, err := utils.ParseToken(raw); err == nil {
			utils.BlacklistToken(raw, claims.ExpiresAt.Time)
		}
	}
	utils.Success(c, gin.H{"logged_out": true})
}

// Me returns the authenticated user's full profile including role and rank.
func Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "not authenticated")
		return
	}

	var user models.User
	err := config.DB().Preload("Role").Preload("Rank").First(&user, userID).Error
	if err != nil {
		utils.Error(c, http.StatusNotFound, http.StatusNotFound, "user not found")
		return
	}
	utils.Success(c, user)
}

// GetUserPublicByUsername returns the public profile for a username:
// reputation counters and rank, without email or other private fields.
func GetUserPublicByUsername(c *gin.Context) {
	username := c.Param("username")

	var user models.User
	err := config.DB().Preload("Rank").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(c, http.StatusNotFound, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load user")
		return
	}

	utils.Success(c, gin.H{
		"id":                   user.ID,
		"username":             user.Username,
		"full_name":            user.FullName,
		"bio":                  user.Bio,
		"total_comments":       user.TotalComments,
		"total_likes_received": user.TotalLikesReceived,
		"reputation_score":     user.ReputationScore,
		"rank":                 user.Rank,
		"created_at":           user.CreatedAt,
	})
}
