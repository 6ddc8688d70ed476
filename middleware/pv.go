package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

// PageViewRecorder counts successful GET requests per (day, path) row. The
// write happens after the handler and never affects the response.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		now := time.Now()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).Create(&models.PageView{Date: day, Path: c.FullPath(), Count: 1}).Error
		if err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("page view upsert failed: %v", err)
		}
	}
}
