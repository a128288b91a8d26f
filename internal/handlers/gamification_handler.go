package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendsense/internal/gamification"
	"spendsense/internal/services"
)

// GamificationHandler serves badges and streaks.
type GamificationHandler struct {
	gamificationService services.GamificationServicer
}

// NewGamificationHandler creates a new GamificationHandler.
func NewGamificationHandler(gamificationService services.GamificationServicer) *GamificationHandler {
	return &GamificationHandler{gamificationService: gamificationService}
}

// GetBadges handles the earned badge list
// @Summary     List earned badges
// @Description Badges the user has earned, oldest first
// @Tags        badges
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Earned badges with count and catalogue size"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /badges [get]
func (h *GamificationHandler) GetBadges(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	badges, err := h.gamificationService.GetBadges(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"badges": badges,
		"count":  len(badges),
		"total":  len(gamification.Definitions),
	})
}

// GetAvailableBadges handles the badge catalogue
// @Summary     List all badges
// @Description The full badge catalogue with the user's earned state
// @Tags        badges
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Badge catalogue"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /badges/available [get]
func (h *GamificationHandler) GetAvailableBadges(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	badges, err := h.gamificationService.GetAvailableBadges(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// CheckBadges handles an explicit badge evaluation
// @Summary     Check for new badges
// @Description Evaluate every unearned badge and award the ones that now hold
// @Tags        badges
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Newly earned badges"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /badges/check [post]
func (h *GamificationHandler) CheckBadges(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	newBadges, err := h.gamificationService.CheckBadges(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "No new badges"
	if len(newBadges) > 0 {
		message = "New badges earned!"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "new_badges": newBadges})
}

// GetStreak handles the streak status
// @Summary     Get streak status
// @Description Current and longest saving streak, discipline score and today's pace
// @Tags        streak
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.StreakStatus "Streak status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /streak [get]
func (h *GamificationHandler) GetStreak(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.gamificationService.GetStreak(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
