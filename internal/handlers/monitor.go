package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/db"
	"github.com/cronwatch-dev/cronwatch/internal/models"
	"github.com/cronwatch-dev/cronwatch/internal/monitors"
	"github.com/cronwatch-dev/cronwatch/internal/utils"
)

type CreateMonitorRequest struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type"`
	Schedule      string `json:"schedule" binding:"required"`
	CheckInMargin int    `json:"checkin_margin"`
}

type UpdateMonitorRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Schedule      string `json:"schedule"`
	CheckInMargin *int   `json:"checkin_margin"`
	Status        string `json:"status"` // "active" or "disabled" only
}

type MonitorSummary struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Schedule      string     `json:"schedule"`
	CheckInMargin int        `json:"checkin_margin"`
	NextCheckIn   *time.Time `json:"next_checkin"`
	LastCheckIn   *time.Time `json:"last_checkin"`
	DateCreated   time.Time  `json:"date_created"`
}

type DashboardResponse struct {
	Project         ProjectSummary        `json:"project"`
	MonitorsSummary MonitorsSummary       `json:"monitors_summary"`
	Monitors        []MonitorSummary      `json:"monitors"`
	RecentFailures  []FailureEventSummary `json:"recent_failures"`
}

type ProjectSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type MonitorsSummary struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Failing int `json:"failing"`
}

type FailureEventSummary struct {
	ID          uint      `json:"id"`
	MonitorName string    `json:"monitor_name"`
	Message     string    `json:"message"`
	DateCreated time.Time `json:"date_created"`
}

func CreateMonitor(ctx *gin.Context) {
	var req CreateMonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, ok := requireOwnedProject(ctx)
	if !ok {
		return
	}

	monitorType := models.MonitorTypeCronJob
	if req.Type != "" {
		parsed, ok := models.ParseMonitorType(req.Type)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid monitor type"})
			return
		}
		monitorType = parsed
	}

	if err := monitors.ValidateSchedule(req.Schedule); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron schedule"})
		return
	}
	if req.CheckInMargin < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "checkin_margin must not be negative"})
		return
	}

	config, err := monitors.Config{Schedule: req.Schedule, CheckInMargin: req.CheckInMargin}.JSON()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode config"})
		return
	}

	next, err := monitors.NextCheckIn(req.Schedule, time.Now(), req.CheckInMargin)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron schedule"})
		return
	}

	monitor := models.Monitor{
		OrganizationID: project.OrganizationID,
		ProjectID:      project.ID,
		Name:           req.Name,
		Status:         models.MonitorStatusActive,
		Type:           monitorType,
		Config:         config,
		NextCheckIn:    &next,
	}

	if err := db.DB.Create(&monitor).Error; err != nil {
		log.Error().Err(err).Msg("Failed to create monitor")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create monitor"})
		return
	}

	ctx.JSON(http.StatusCreated, buildMonitorSummary(monitor))
}

func GetMonitors(ctx *gin.Context) {
	project, ok := requireOwnedProject(ctx)
	if !ok {
		return
	}

	var monitorsList []models.Monitor
	if err := db.DB.Where("project_id = ?", project.ID).Find(&monitorsList).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitors"})
		return
	}

	summaries := make([]MonitorSummary, 0, len(monitorsList))
	for _, monitor := range monitorsList {
		summaries = append(summaries, buildMonitorSummary(monitor))
	}

	ctx.JSON(http.StatusOK, summaries)
}

func UpdateMonitor(ctx *gin.Context) {
	monitor, _, ok := requireOwnedMonitor(ctx)
	if !ok {
		return
	}

	var req UpdateMonitorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = req.Name
	}

	if req.Type != "" {
		parsed, ok := models.ParseMonitorType(req.Type)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid monitor type"})
			return
		}
		updates["type"] = parsed
	}

	switch req.Status {
	case "":
	case "active":
		updates["status"] = models.MonitorStatusActive
	case "disabled":
		updates["status"] = models.MonitorStatusDisabled
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status must be active or disabled"})
		return
	}

	if req.Schedule != "" || req.CheckInMargin != nil {
		cfg, err := monitors.ParseConfig(monitor.Config)
		if err != nil {
			cfg = monitors.Config{}
		}
		if req.Schedule != "" {
			if err := monitors.ValidateSchedule(req.Schedule); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron schedule"})
				return
			}
			cfg.Schedule = req.Schedule
		}
		if req.CheckInMargin != nil {
			if *req.CheckInMargin < 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "checkin_margin must not be negative"})
				return
			}
			cfg.CheckInMargin = *req.CheckInMargin
		}

		config, err := cfg.JSON()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode config"})
			return
		}
		updates["config"] = config

		// A schedule change moves the next expected check-in. Reference
		// from the last check-in when there is one, otherwise from now.
		from := time.Now()
		if monitor.LastCheckIn != nil {
			from = *monitor.LastCheckIn
		}
		next, err := monitors.NextCheckIn(cfg.Schedule, from, cfg.CheckInMargin)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron schedule"})
			return
		}
		updates["next_checkin"] = next
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	// When the update rewrites next_checkin it is keyed on the
	// last_checkin we read above, so a check-in landing between the read
	// and this write keeps its freshly computed slot.
	q := db.DB.Model(&models.Monitor{}).Where("id = ?", monitor.ID)
	if _, rewritesNext := updates["next_checkin"]; rewritesNext {
		if monitor.LastCheckIn == nil {
			q = q.Where("last_checkin IS NULL")
		} else {
			q = q.Where("last_checkin = ?", *monitor.LastCheckIn)
		}
	}

	res := q.Updates(updates)
	if res.Error != nil {
		log.Error().Err(res.Error).Uint("monitor", monitor.ID).Msg("Failed to update monitor")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update monitor"})
		return
	}
	if res.RowsAffected == 0 {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Monitor was updated concurrently, retry"})
		return
	}

	if err := db.DB.First(&monitor, monitor.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitor"})
		return
	}

	ctx.JSON(http.StatusOK, buildMonitorSummary(monitor))
}

// DeleteMonitor marks a monitor for deletion. Rows are never hard-deleted
// here; actual removal is an external lifecycle concern, and a monitor in
// pending_deletion is excluded from sweeping and check-in transitions.
func DeleteMonitor(ctx *gin.Context) {
	monitor, _, ok := requireOwnedMonitor(ctx)
	if !ok {
		return
	}

	if err := db.DB.Model(&monitor).Update("status", models.MonitorStatusPendingDeletion).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete monitor"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func GetDashboard(ctx *gin.Context) {
	project, ok := requireOwnedProject(ctx)
	if !ok {
		return
	}

	var monitorsList []models.Monitor
	if err := db.DB.Where("project_id = ?", project.ID).Find(&monitorsList).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitors"})
		return
	}

	var summary MonitorsSummary
	summaries := make([]MonitorSummary, 0, len(monitorsList))
	for _, monitor := range monitorsList {
		summaries = append(summaries, buildMonitorSummary(monitor))
		summary.Total++
		switch monitor.Status {
		case models.MonitorStatusActive:
			summary.Active++
		case models.MonitorStatusFailing:
			summary.Failing++
		}
	}

	var events []models.FailureEvent
	db.DB.Preload("Monitor").
		Where("project_id = ? AND created_at > ?", project.ID, time.Now().Add(-7*24*time.Hour)).
		Order("created_at DESC").
		Limit(10).
		Find(&events)

	failures := make([]FailureEventSummary, 0, len(events))
	for _, event := range events {
		failures = append(failures, FailureEventSummary{
			ID:          event.ID,
			MonitorName: event.Monitor.Name,
			Message:     event.Message,
			DateCreated: event.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, DashboardResponse{
		Project: ProjectSummary{
			ID:          project.ID,
			Name:        project.Name,
			Description: project.Description,
		},
		MonitorsSummary: summary,
		Monitors:        summaries,
		RecentFailures:  failures,
	})
}

func buildMonitorSummary(monitor models.Monitor) MonitorSummary {
	cfg, err := monitors.ParseConfig(monitor.Config)
	if err != nil {
		log.Warn().Err(err).Uint("monitor", monitor.ID).Msg("Monitor has unreadable config")
	}

	return MonitorSummary{
		ID:            monitor.GUID,
		Name:          monitor.Name,
		Type:          monitor.Type.String(),
		Status:        monitor.Status.String(),
		Schedule:      cfg.Schedule,
		CheckInMargin: cfg.CheckInMargin,
		NextCheckIn:   monitor.NextCheckIn,
		LastCheckIn:   monitor.LastCheckIn,
		DateCreated:   monitor.CreatedAt,
	}
}

// requireOwnedProject resolves the project_id path param and verifies the
// authenticated user owns the project.
func requireOwnedProject(ctx *gin.Context) (models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Project{}, false
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Project{}, false
	}

	var project models.Project
	if err := db.DB.Where("id = ? AND owner_id = ?", projectID, userID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return models.Project{}, false
	}

	return project, true
}

// requireOwnedMonitor resolves the monitor_guid path param within an owned
// project.
func requireOwnedMonitor(ctx *gin.Context) (models.Monitor, models.Project, bool) {
	project, ok := requireOwnedProject(ctx)
	if !ok {
		return models.Monitor{}, models.Project{}, false
	}

	guid, err := utils.GetMonitorGUID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Monitor{}, project, false
	}

	var monitor models.Monitor
	if err := db.DB.Where("guid = ? AND project_id = ?", guid, project.ID).First(&monitor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitor"})
		}
		return models.Monitor{}, project, false
	}

	return monitor, project, true
}
