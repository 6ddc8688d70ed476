package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/contentsync"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

// Dashboard aggregates the admin overview: account totals, engagement
// windows, top commenters and recent signups.
func Dashboard(c *gin.Context) {
	db := config.DB()
	now := time.Now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	var totalUsers, verifiedUsers, activeUsers int64
	db.Model(&models.User{}).Count(&totalUsers)
	db.Model(&models.User{}).Where("email_verified = ?", true).Count(&verifiedUsers)
	db.Model(&models.User{}).Where("is_active = ?", true).Count(&activeUsers)

	var newDay, newWeek, newMonth int64
	db.Model(&models.User{}).Where("created_at >= ?", dayAgo).Count(&newDay)
	db.Model(&models.User{}).Where("created_at >= ?", weekAgo).Count(&newWeek)
	db.Model(&models.User{}).Where("created_at >= ?", monthAgo).Count(&newMonth)

	var totalPosts, totalComments, commentsWeek, likesWeek int64
	db.Model(&models.Post{}).Count(&totalPosts)
	db.Model(&models.Comment{}).Where("is_deleted = ?", false).Count(&totalComments)
	db.Model(&models.Comment{}).
		Where("is_deleted = ? AND created_at >= ?", false, weekAgo).
		Count(&commentsWeek)
	db.Model(&models.CommentLike{}).
		Where("is_like = ? AND created_at >= ?", true, weekAgo).
		Count(&likesWeek)

	type topCommenter struct {
		Username        string `json:"username"`
		TotalComments   int    `json:"total_comments"`
		ReputationScore int    `json:"reputation_score"`
	}
	var topCommenters []topCommenter
	db.Model(&models.User{}).
		Select("username, total_comments, reputation_score").
		Where("total_comments > 0").
		Order("total_comments DESC").
		Limit(10).
		Scan(&topCommenters)

	var recentUsers []models.User
	db.Preload("Rank").Order("created_at DESC").Limit(10).Find(&recentUsers)

	type postReactions struct {
		PostSlug string `json:"post_slug"`
		Comments int64  `json:"comments"`
	}
	var busiestPosts []postReactions
	db.Model(&models.Comment{}).
		Select("post_slug, COUNT(*) AS comments").
		Where("is_deleted = ?", false).
		Group("post_slug").
		Order("comments DESC").
		Limit(10).
		Scan(&busiestPosts)

	var viewsToday int64
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	db.Model(&models.PageView{}).
		Select("COALESCE(SUM(count), 0)").
		Where("date = ?", today).
		Scan(&viewsToday)

	utils.Success(c, gin.H{
		"users": gin.H{
			"total":          totalUsers,
			"verified":       verifiedUsers,
			"active":         activeUsers,
			"new_24h":        newDay,
			"new_7d":         newWeek,
			"new_30d":        newMonth,
			"recent":         recentUsers,
			"top_commenters": topCommenters,
		},
		"content": gin.H{
			"total_posts":    totalPosts,
			"total_comments": totalComments,
			"comments_7d":    commentsWeek,
			"likes_7d":       likesWeek,
			"busiest_posts":  busiestPosts,
		},
		"traffic": gin.H{
			"views_today": viewsToday,
		},
	})
}

// ListUsers returns a paginated user listing with roles and ranks.
func ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if size < 1 || size > 100 {
		size = 20
	}

	db := config.DB()
	var total int64
	db.Model(&models.User{}).Count(&total)

	var users []models.User
	err := db.Preload("Role").Preload("Rank").
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load users")
		return
	}
	utils.Success(c, gin.H{"users": users, "total": total, "page": page, "size": size})
}

// SyncPosts triggers one content synchronization pass and returns its
// report. The blog list cache is invalidated when new rows were created.
func SyncPosts(c *gin.Context) {
	cfg := config.Get()
	report, err := contentsync.Sync(config.DB(), cfg.ContentDir, contentsync.Options{
		DefaultAuthor:    cfg.ContentDefaultAuthor,
		DefaultCategory:  cfg.ContentDefaultCategory,
		FallbackUsername: cfg.ContentFallbackUsername,
	})
	if err != nil {
		utils.Sugar.Errorf("manual content sync failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "content synchronization failed")
		return
	}
	if report.Created > 0 {
		utils.InvalidateByPrefix(blogCachePrefix)
	}
	utils.Success(c, report)
}
