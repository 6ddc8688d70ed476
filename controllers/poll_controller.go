package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/middleware"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

type castVoteRequest struct {
	Option string `json:"option" binding:"required,max=200"`
}

// CastVote records or updates the caller's ballot in the named poll. One
// row per (poll, user); voting again switches the option.
func CastVote(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "not authenticated")
		return
	}
	pollName := c.Param("name")

	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "option is required")
		return
	}
	option := strings.TrimSpace(utils.Sanitize(req.Option))
	if option == "" {
		utils.Error(c, http.StatusBadRequest, http.StatusBadRequest, "option is required")
		return
	}

	db := config.DB()

	var existing models.Vote
	err := db.Where("poll_name = ? AND user_id = ?", pollName, userID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		vote := models.Vote{
			UserID:    &userID,
			PollName:  pollName,
			Option:    option,
			IPAddress: c.ClientIP(),
		}
		if err := db.Create(&vote).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to record vote")
			return
		}
		utils.Success(c, gin.H{"action": "created", "poll": pollName, "option": option})
	case err != nil:
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load vote")
	default:
		if err := db.Model(&existing).Update("option", option).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to update vote")
			return
		}
		utils.Success(c, gin.H{"action": "updated", "poll": pollName, "option": option})
	}
}

// PollResults aggregates vote counts per option for the named poll.
func PollResults(c *gin.Context) {
	pollName := c.Param("name")

	type resultRow struct {
		Option string `json:"option"`
		Total  int64  `json:"total"`
	}
	var rows []resultRow
	err := config.DB().Model(&models.Vote{}).
		Select("`option`, COUNT(*) AS total").
		Where("poll_name = ?", pollName).
		Group("`option`").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, "failed to load results")
		return
	}

	var total int64
	for _, r := range rows {
		total += r.Total
	}
	utils.Success(c, gin.H{"poll": pollName, "results": rows, "total": total})
}
