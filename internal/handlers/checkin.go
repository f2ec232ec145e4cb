package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cronwatch-dev/cronwatch/db"
	"github.com/cronwatch-dev/cronwatch/internal/models"
	"github.com/cronwatch-dev/cronwatch/internal/monitors"
	"github.com/cronwatch-dev/cronwatch/internal/utils"
)

// checkIns is wired by main with the composed failure emitter.
var checkIns *monitors.Service

func InitCheckInService(svc *monitors.Service) {
	checkIns = svc
}

type CreateCheckInRequest struct {
	Status   string `json:"status" binding:"required"`
	Duration *int   `json:"duration"`
	Location string `json:"location"`
}

type UpdateCheckInRequest struct {
	Status   *string `json:"status"`
	Duration *int    `json:"duration"`
}

type CheckInResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Duration    *int      `json:"duration"`
	DateCreated time.Time `json:"dateCreated"`
}

func CreateCheckIn(ctx *gin.Context) {
	monitor, ok := resolveCheckInMonitor(ctx)
	if !ok {
		return
	}

	var req CreateCheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, ok := models.ParseCheckInStatus(req.Status)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status must be success, failure or in_progress"})
		return
	}

	var location *models.MonitorLocation
	if req.Location != "" {
		loc, err := findOrCreateLocation(req.Location)
		if err != nil {
			log.Error().Err(err).Str("location", req.Location).Msg("Failed to resolve check-in location")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve location"})
			return
		}
		location = &loc
	}

	checkin, err := checkIns.CreateCheckIn(monitor, status, req.Duration, location)
	if err != nil {
		respondCheckInError(ctx, monitor, err)
		return
	}

	ctx.JSON(http.StatusCreated, buildCheckInResponse(checkin))
}

func UpdateCheckIn(ctx *gin.Context) {
	monitor, ok := resolveCheckInMonitor(ctx)
	if !ok {
		return
	}

	checkinGUID := ctx.Param("checkin_guid")
	checkin, err := checkIns.GetCheckIn(monitor, checkinGUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Check-in not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve check-in"})
		}
		return
	}

	var req UpdateCheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var status *models.CheckInStatus
	if req.Status != nil {
		parsed, ok := models.ParseCheckInStatus(*req.Status)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status must be success, failure or in_progress"})
			return
		}
		status = &parsed
	}

	updated, err := checkIns.UpdateCheckIn(checkin, status, req.Duration)
	if err != nil {
		respondCheckInError(ctx, monitor, err)
		return
	}

	ctx.JSON(http.StatusOK, buildCheckInResponse(updated))
}

func GetCheckIn(ctx *gin.Context) {
	monitor, ok := resolveCheckInMonitor(ctx)
	if !ok {
		return
	}

	checkin, err := checkIns.GetCheckIn(monitor, ctx.Param("checkin_guid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Check-in not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve check-in"})
		}
		return
	}

	ctx.JSON(http.StatusOK, buildCheckInResponse(checkin))
}

func ListCheckIns(ctx *gin.Context) {
	monitor, ok := resolveCheckInMonitor(ctx)
	if !ok {
		return
	}

	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	checkins, err := checkIns.ListCheckIns(monitor, offset, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve check-ins"})
		return
	}

	response := make([]CheckInResponse, 0, len(checkins))
	for _, checkin := range checkins {
		response = append(response, buildCheckInResponse(checkin))
	}

	ctx.JSON(http.StatusOK, response)
}

// resolveCheckInMonitor resolves the monitor_guid path param and verifies
// the caller may report against it: the monitor's project must be visible
// to the user and the owning organization must have monitors enabled.
func resolveCheckInMonitor(ctx *gin.Context) (models.Monitor, bool) {
	guid, err := utils.GetMonitorGUID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Monitor{}, false
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Monitor{}, false
	}

	monitor, err := checkIns.GetMonitor(guid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitor"})
		}
		return models.Monitor{}, false
	}

	var project models.Project
	if err := db.DB.Preload("Organization").First(&project, monitor.ProjectID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		return models.Monitor{}, false
	}

	if !utils.ProjectVisibleToUser(db.DB, project, userID) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		return models.Monitor{}, false
	}

	if !project.Organization.MonitorsEnabled {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitors are not enabled for this organization"})
		return models.Monitor{}, false
	}

	return monitor, true
}

func findOrCreateLocation(name string) (models.MonitorLocation, error) {
	var location models.MonitorLocation
	err := db.DB.Where(models.MonitorLocation{Name: name}).FirstOrCreate(&location).Error
	return location, err
}

func respondCheckInError(ctx *gin.Context, monitor models.Monitor, err error) {
	switch {
	case errors.Is(err, monitors.ErrInvalidCheckInStatus), errors.Is(err, monitors.ErrInvalidDuration):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, monitors.ErrCheckInFinished):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Check-in is already finished"})
	case errors.Is(err, monitors.ErrInvalidSchedule):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Monitor has an invalid schedule"})
	case errors.Is(err, monitors.ErrStaleWrite):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitor is being updated concurrently, retry"})
	default:
		log.Error().Err(err).Uint("monitor", monitor.ID).Msg("Failed to record check-in")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record check-in"})
	}
}

func buildCheckInResponse(checkin models.CheckIn) CheckInResponse {
	return CheckInResponse{
		ID:          checkin.GUID,
		Status:      checkin.Status.String(),
		Duration:    checkin.Duration,
		DateCreated: checkin.CreatedAt,
	}
}
