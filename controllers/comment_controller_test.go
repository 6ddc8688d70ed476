package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/middleware"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "miniredis: %v\n", err)
		os.Exit(1)
	}
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("REDIS_HOST", mr.Host())
	os.Setenv("REDIS_PORT", mr.Port())
	config.Load()

	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()

	code := m.Run()
	mr.Close()
	os.Exit(code)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Role{}, &models.Rank{}, &models.User{},
		&models.Post{}, &models.Tag{}, &models.Comment{},
		&models.CommentLike{}, &models.Vote{}, &models.PageView{},
	))
	require.NoError(t, models.SeedCatalogs(db))
	config.SetDB(db)
	return db
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/blog/posts/:slug/comments", ListComments)
	api.POST("/blog/posts/:slug/comments", middleware.AuthRequired(), CreateComment)
	api.POST("/comments/:id/like", middleware.AuthRequired(), ToggleLike)
	api.DELETE("/comments/:id", middleware.AuthRequired(), DeleteComment)
	api.GET("/users/:username", GetUserPublicByUsername)
	return r
}

func createUser(t *testing.T, db *gorm.DB, username string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	token, err := utils.GenerateToken(user.ID, user.Username, models.RoleUser, tokenDuration)
	require.NoError(t, err)
	return user, token
}

func createPost(t *testing.T, db *gorm.DB, slug string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Post{Slug: slug, Author: "KGR33N", IsPublished: true}).Error)
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestCreateCommentCreditsAuthor(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "alice")
	createPost(t, db, "hello-world")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", token,
		gin.H{"content": "Great post!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	rep, ok := data["reputation"].(map[string]any)
	require.True(t, ok, "response must include the reputation result")
	assert.EqualValues(t, 2, rep["new_reputation"])
	assert.EqualValues(t, 1, rep["total_comments"])

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, 2, reloaded.ReputationScore)
	assert.Equal(t, 1, reloaded.TotalComments)
}

func TestCreateCommentRequiresAuth(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	createPost(t, db, "hello-world")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", "",
		gin.H{"content": "anonymous"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCommentUnknownPost(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	_, token := createUser(t, db, "bob")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/no-such-post/comments", token,
		gin.H{"content": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeCreditsCommentAuthorOnce(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	author, authorToken := createUser(t, db, "carol")
	_, likerToken := createUser(t, db, "dave")
	createPost(t, db, "hello-world")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", authorToken,
		gin.H{"content": "my comment"})
	require.Equal(t, http.StatusCreated, w.Code)
	var comment models.Comment
	require.NoError(t, db.Where("user_id = ?", author.ID).First(&comment).Error)

	likePath := fmt.Sprintf("/api/v1/comments/%d/like", comment.ID)

	// New like: author earns one point on top of the comment's two.
	w = doJSON(r, http.MethodPost, likePath, likerToken, gin.H{"is_like": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, author.ID).Error)
	assert.Equal(t, 3, reloaded.ReputationScore)
	assert.Equal(t, 1, reloaded.TotalLikesReceived)

	// Unlike and re-like: toggling must not farm extra points.
	w = doJSON(r, http.MethodPost, likePath, likerToken, gin.H{"is_like": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "removed", decodeData(t, w)["action"])

	w = doJSON(r, http.MethodPost, likePath, likerToken, gin.H{"is_like": true})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&reloaded, author.ID).Error)
	assert.Equal(t, 4, reloaded.ReputationScore)
	assert.Equal(t, 2, reloaded.TotalLikesReceived)
}

func TestSelfLikeEarnsNothing(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	author, token := createUser(t, db, "erin")
	createPost(t, db, "hello-world")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", token,
		gin.H{"content": "self promotion"})
	require.Equal(t, http.StatusCreated, w.Code)
	var comment models.Comment
	require.NoError(t, db.Where("user_id = ?", author.ID).First(&comment).Error)

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/comments/%d/like", comment.ID), token,
		gin.H{"is_like": true})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, author.ID).Error)
	// Only the comment's two points; the self-like earns nothing.
	assert.Equal(t, 2, reloaded.ReputationScore)
	assert.Equal(t, 0, reloaded.TotalLikesReceived)
}

func TestDislikeEarnsNothing(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	author, authorToken := createUser(t, db, "frank")
	_, haterToken := createUser(t, db, "grace")
	createPost(t, db, "hello-world")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", authorToken,
		gin.H{"content": "controversial"})
	require.Equal(t, http.StatusCreated, w.Code)
	var comment models.Comment
	require.NoError(t, db.Where("user_id = ?", author.ID).First(&comment).Error)

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/comments/%d/like", comment.ID), haterToken,
		gin.H{"is_like": false})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, author.ID).Error)
	assert.Equal(t, 2, reloaded.ReputationScore)
	assert.Equal(t, 0, reloaded.TotalLikesReceived)
}

func TestDeleteCommentOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	author, authorToken := createUser(t, db, "heidi")
	_, otherToken := createUser(t, db, "ivan")
	createPost(t, db, "hello-world")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", authorToken,
		gin.H{"content": "mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	var comment models.Comment
	require.NoError(t, db.Where("user_id = ?", author.ID).First(&comment).Error)

	path := fmt.Sprintf("/api/v1/comments/%d", comment.ID)

	w = doJSON(r, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, path, authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Comment
	require.NoError(t, db.First(&reloaded, comment.ID).Error)
	assert.True(t, reloaded.IsDeleted)
}

func TestListCommentsThreadsReplies(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	_, token := createUser(t, db, "judy")
	createPost(t, db, "hello-world")

	w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", token,
		gin.H{"content": "root comment"})
	require.Equal(t, http.StatusCreated, w.Code)
	var root models.Comment
	require.NoError(t, db.Where("parent_id IS NULL").First(&root).Error)

	w = doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", token,
		gin.H{"content": "a reply", "parent_id": root.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/blog/posts/hello-world/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.EqualValues(t, 2, data["total"])
	comments, ok := data["comments"].([]any)
	require.True(t, ok)
	require.Len(t, comments, 1)
	rootView := comments[0].(map[string]any)
	replies, ok := rootView["replies"].([]any)
	require.True(t, ok)
	assert.Len(t, replies, 1)
}

func TestPublicProfileExposesReputation(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter()
	user, token := createUser(t, db, "karl")
	createPost(t, db, "hello-world")

	// 25 comments at two points each lands at the REGULAR threshold.
	for i := 0; i < 25; i++ {
		w := doJSON(r, http.MethodPost, "/api/v1/blog/posts/hello-world/comments", token,
			gin.H{"content": fmt.Sprintf("comment %d", i)})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(r, http.MethodGet, "/api/v1/users/"+user.Username, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.EqualValues(t, 50, data["reputation_score"])
	rank, ok := data["rank"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "REGULAR", rank["name"])
}
