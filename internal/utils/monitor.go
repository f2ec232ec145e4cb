package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

func GetProjectID(ctx *gin.Context) (uint64, error) {
	var err error

	projectIDStr := ctx.Param("project_id")

	if projectIDStr == "" {
		return 0, errors.New("Project ID not found")
	}

	projectID, err := strconv.ParseUint(projectIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Project ID")
	}

	return projectID, nil
}

func GetMonitorGUID(ctx *gin.Context) (string, error) {
	guid := ctx.Param("monitor_guid")

	if guid == "" {
		return "", errors.New("Monitor ID not found")
	}

	return guid, nil
}

// ProjectVisibleToUser reports whether the user owns the project or holds a
// membership in it.
func ProjectVisibleToUser(db *gorm.DB, project models.Project, userID uint) bool {
	if project.OwnerID == userID {
		return true
	}

	var count int64
	db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", project.ID, userID).
		Count(&count)
	return count > 0
}
