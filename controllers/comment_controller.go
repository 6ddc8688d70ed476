package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/middleware"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/reputation"
	"github.com/kgr33n/kblog/utils"
)

type commentView struct {
	models.Comment
	Likes    int64         `json:"likes"`
	Dislikes int64         `json:"dislikes"`
	Replies  []commentView `json:"replies"`
}

// ListComments returns the threaded comments of one post: top-level comments
// with their direct replies and like/dislike tallies. Soft-deleted comments
// keep their position with the content blanked so reply chains stay legible.
func ListComments(c *gin.Context) {
	slug := c.Param("slug")
	db := config.DB()

	var comments []models.Comment
	err := db.Preload("User").Preload("User.Rank").
		Where("post_slug = ?", slug).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load comments")
		return
	}

	// One aggregate query for all like counts instead of one per comment.
	type likeRow struct {
		CommentID uint
		IsLike    bool
		Total     int64
	}
	ids := make([]uint, 0, len(comments))
	for i := range comments {
		ids = append(ids, comments[i].ID)
	}
	likes := map[uint]int64{}
	dislikes := map[uint]int64{}
	if len(ids) > 0 {
		var rows []likeRow
		db.Model(&models.CommentLike{}).
			Select("comment_id, is_like, COUNT(*) AS total").
			Where("comment_id IN ?", ids).
			Group("comment_id, is_like").
			Scan(&rows)
		for _, r := range rows {
			if r.IsLike {
				likes[r.CommentID] = r.Total
			} else {
				dislikes[r.CommentID] = r.Total
			}
		}
	}

	views := map[uint]*commentView{}
	var roots []*commentView
	for i := range comments {
		cm := comments[i]
		if cm.IsDeleted {
			cm.Content = ""
		}
		v := &commentView{
			Comment:  cm,
			Likes:    likes[cm.ID],
			Dislikes: dislikes[cm.ID],
			Replies:  []commentView{},
		}
		views[cm.ID] = v
		if cm.ParentID == nil {
			roots = append(roots, v)
		}
	}
	for i := range comments {
		cm := comments[i]
		if cm.ParentID == nil {
			continue
		}
		if parent, ok := views[*cm.ParentID]; ok {
			parent.Replies = append(parent.Replies, *views[cm.ID])
		}
	}

	out := make([]commentView, 0, len(roots))
	for _, v := range roots {
		out = append(out, *v)
	}
	utils.Success(c, gin.H{"post_slug": slug, "comments": out, "total": len(comments)})
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	ParentID *uint  `json:"parent_id"`
}

// CreateComment posts a comment on a slug and credits the author's
// reputation. The response carries the engine's rank evaluation so clients
// can surface a promotion immediately.
func CreateComment(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "not authenticated")
		return
	}
	slug := c.Param("slug")

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "comment content is required")
		return
	}
	content := strings.TrimSpace(utils.Sanitize(req.Content))
	if content == "" {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "comment content is required")
		return
	}

	db := config.DB()

	var postCount int64
	db.Model(&models.Post{}).Where("slug = ?", slug).Count(&postCount)
	if postCount == 0 {
		utils.Error(c, http.StatusNotFound, http.StatusNotFound, "post not found")
		return
	}

	if req.ParentID != nil {
		var parent models.Comment
		err := db.Where("id = ? AND post_slug = ?", *req.ParentID, slug).First(&parent).Error
		if err != nil {
			utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "parent comment not found on this post")
			return
		}
		if parent.ParentID != nil {
			// One level of threading: replies to replies attach to the root.
			req.ParentID = parent.ParentID
		}
	}

	comment := models.Comment{
		PostSlug:  slug,
		UserID:    userID,
		ParentID:  req.ParentID,
		Content:   content,
		IPAddress: c.ClientIP(),
	}
	if err := db.Create(&comment).Error; err != nil {
		utils.Sugar.Errorf("create comment on %s failed: %v", slug, err)
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to create comment")
		return
	}

	result, err := reputation.RecordEvent(db, userID, reputation.EventCommentCreated)
	if err != nil {
		// The comment exists; reputation lag is reported, not fatal.
		utils.Sugar.Errorf("reputation credit for user %d failed: %v", userID, err)
	}

	// Cached post listings carry comment counts.
	utils.InvalidateByPrefix(blogCachePrefix)

	db.Preload("User").Preload("User.Rank").First(&comment, comment.ID)
	payload := gin.H{"comment": comment}
	if result != nil {
		payload["reputation"] = result
	}
	utils.Respond(c, http.StatusCreated, 0, "success", payload)
}

type toggleLikeRequest struct {
	IsLike bool `json:"is_like"`
}

// ToggleLike likes or dislikes a comment. Repeating the same reaction
// removes it; switching updates it in place. The comment author earns
// reputation only when a new like row is created, never for an update to an
// existing row and never from their own account. Removing a like does not
// subtract, the score only ever increases, so a re-like after an unlike
// awards again.
func ToggleLike(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "not authenticated")
		return
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req toggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "is_like is required")
		return
	}

	db := config.DB()

	var comment models.Comment
	if err := db.First(&comment, uint(commentID)).Error; err != nil {
		utils.Error(c, http.StatusNotFound, http.StatusNotFound, "comment not found")
		return
	}
	if comment.IsDeleted {
		utils.Error(c, http.StatusGone, http.StatusGone, "comment was deleted")
		return
	}

	var existing models.CommentLike
	err = db.Where("comment_id = ? AND user_id = ?", comment.ID, userID).First(&existing).Error

	var action string
	var awardXP bool
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := models.CommentLike{CommentID: comment.ID, UserID: userID, IsLike: req.IsLike}
		if err := db.Create(&like).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to save reaction")
			return
		}
		action = "created"
		awardXP = req.IsLike && comment.UserID != userID
	case err != nil:
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load reaction")
		return
	case existing.IsLike == req.IsLike:
		if err := db.Delete(&existing).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to remove reaction")
			return
		}
		action = "removed"
	default:
		if err := db.Model(&existing).Update("is_like", req.IsLike).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to update reaction")
			return
		}
		action = "updated"
	}

	payload := gin.H{"action": action, "is_like": req.IsLike}
	if awardXP {
		result, err := reputation.RecordEvent(db, comment.UserID, reputation.EventLikeReceived)
		if err != nil {
			utils.Sugar.Errorf("reputation credit for user %d failed: %v", comment.UserID, err)
		} else {
			payload["author_reputation"] = result
		}
	}
	utils.Success(c, payload)
}

// DeleteComment soft-deletes a comment. Owners can delete their own;
// moderators and admins can delete anyone's.
func DeleteComment(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "not authenticated")
		return
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "invalid comment id")
		return
	}

	db := config.DB()

	var comment models.Comment
	if err := db.First(&comment, uint(commentID)).Error; err != nil {
		utils.Error(c, http.StatusNotFound, http.StatusNotFound, "comment not found")
		return
	}

	role := c.GetString(middleware.ContextRoleKey)
	privileged := role == models.RoleModerator || role == models.RoleAdmin
	if comment.UserID != userID && !privileged {
		utils.Error(c, http.StatusForbidden, http.StatusForbidden, "not allowed to delete this comment")
		return
	}

	if err := db.Model(&comment).Update("is_deleted", true).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to delete comment")
		return
	}
	utils.InvalidateByPrefix(blogCachePrefix)
	utils.Success(c, gin.H{"deleted": true, "id": comment.ID})
}
