package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"booking-service/internal/service"
	"booking-service/internal/store"
	"booking-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	bookingService *service.BookingService
}

// NewHandler creates a new HTTP handler
func NewHandler(bookingService *service.BookingService) *Handler {
	return &Handler{
		bookingService: bookingService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/bookings", h.createBooking)
		v1.GET("/bookings", h.listBookings)
		v1.GET("/bookings/:id", h.getBooking)
		v1.PATCH("/bookings/:id", h.updateBooking)
		v1.DELETE("/bookings/:id", h.cancelBooking)
		v1.POST("/bookings/:id/complete", h.archiveCompleted)
		v1.GET("/counters", h.getCounters)
		v1.POST("/counters/reset", h.resetCounters)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createBooking handles booking creation
func (h *Handler) createBooking(c *gin.Context) {
	var req service.CreateBookingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create booking",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// listBookings returns the merged, deduplicated view of every source
func (h *Handler) listBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListBookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list bookings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// getBooking handles get booking by id or booking ID
func (h *Handler) getBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get booking",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// updateBooking handles partial booking updates
func (h *Handler) updateBooking(c *gin.Context) {
	var patch service.BookingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update booking",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// cancelBooking moves a booking into the cancelled archive
func (h *Handler) cancelBooking(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to cancel booking",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// archiveCompleted moves a booking into the completed archive
func (h *Handler) archiveCompleted(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	booking, err := h.bookingService.ArchiveCompleted(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to archive booking",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// getCounters returns every category's windows and totals
func (h *Handler) getCounters(c *gin.Context) {
	counters, err := h.bookingService.GetCounters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read counters",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, counters)
}

// resetCounters zeroes all counters
func (h *Handler) resetCounters(c *gin.Context) {
	if err := h.bookingService.ResetCounters(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reset counters",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
