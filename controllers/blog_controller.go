package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

const (
	blogCachePrefix = "cache:blog:"
	blogCacheTTL    = 2 * time.Minute
	defaultPageSize = 10
	maxPageSize     = 50
)

type postView struct {
	models.Post
	CommentCount int64 `json:"comment_count"`
}

// ListPosts returns published posts, newest first, with comment counts.
// Pages are cached briefly in Redis; the cache is invalidated whenever a
// sync run or an admin mutation touches posts.
func ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	category := c.Query("category")

	cacheKey := fmt.Sprintf("%slist:p%d:s%d:c%s", blogCachePrefix, page, size, category)
	if raw, ok := utils.CacheGetBytes(cacheKey); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		return
	}

	db := config.DB()
	query := db.Model(&models.Post{}).Where("is_published = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load posts")
		return
	}

	var posts []models.Post
	err := query.Preload("Tags").
		Order("published_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&posts).Error
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load posts")
		return
	}

	views := attachCommentCounts(db, posts)
	payload := utils.JSONResponse{
		Code:    0,
		Message: "success",
		Data: gin.H{
			"posts": views,
			"total": total,
			"page":  page,
			"size":  size,
		},
	}
	if raw, err := json.Marshal(payload); err == nil {
		utils.CacheSetBytes(cacheKey, raw, blogCacheTTL)
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// GetPostBySlug returns one published post's metadata with its comment count.
func GetPostBySlug(c *gin.Context) {
	slug := c.Param("slug")
	db := config.DB()

	var post models.Post
	err := db.Preload("Tags").Where("slug = ? AND is_published = ?", slug, true).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(c, http.StatusNotFound, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load post")
		return
	}

	var commentCount int64
	db.Model(&models.Comment{}).
		Where("post_slug = ? AND is_deleted = ?", slug, false).
		Count(&commentCount)

	utils.Success(c, postView{Post: post, CommentCount: commentCount})
}

// AdminListPosts returns all posts including unpublished ones, filterable by
// category, with no caching.
func AdminListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if size < 1 || size > 100 {
		size = 20
	}

	db := config.DB()
	query := db.Model(&models.Post{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	query.Count(&total)

	var posts []models.Post
	err := query.Preload("Tags").
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&posts).Error
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load posts")
		return
	}

	utils.Success(c, gin.H{
		"posts": attachCommentCounts(db, posts),
		"total": total,
		"page":  page,
		"size":  size,
	})
}

func attachCommentCounts(db *gorm.DB, posts []models.Post) []postView {
	views := make([]postView, 0, len(posts))
	if len(posts) == 0 {
		return views
	}

	slugs := make([]string, 0, len(posts))
	for i := range posts {
		slugs = append(slugs, posts[i].Slug)
	}
	type countRow struct {
		PostSlug string
		Total    int64
	}
	var rows []countRow
	db.Model(&models.Comment{}).
		Select("post_slug, COUNT(*) AS total").
		Where("post_slug IN ? AND is_deleted = ?", slugs, false).
		Group("post_slug").
		Scan(&rows)
	counts := map[string]int64{}
	for _, r := range rows {
		counts[r.PostSlug] = r.Total
	}

	for i := range posts {
		views = append(views, postView{Post: posts[i], CommentCount: counts[posts[i].Slug]})
	}
	return views
}
