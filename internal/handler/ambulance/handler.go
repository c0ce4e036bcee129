package ambulance

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-ops/internal/handler"
	"github.com/jwalitptl/hospital-ops/internal/middleware"
	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/service/ambulance"
	"github.com/jwalitptl/hospital-ops/internal/service/hospital"
	"github.com/jwalitptl/hospital-ops/internal/service/notification"
)

const heartbeatInterval = 15 * time.Second

type Handler struct {
	svc       ambulance.AmbulanceServicer
	hospitals hospital.HospitalServicer
	notifier  notification.Service
	heartbeat time.Duration
}

func NewHandler(svc ambulance.AmbulanceServicer, hospitals hospital.HospitalServicer, notifier notification.Service) *Handler {
	return &Handler{
		svc:       svc,
		hospitals: hospitals,
		notifier:  notifier,
		heartbeat: heartbeatInterval,
	}
}

// RegisterRoutes expects r to be behind Authenticate.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authz *middleware.AuthMiddleware) {
	admin := authz.RequireRoles(model.RoleHospitalAdmin)
	driver := authz.RequireRoles(model.RoleAmbulanceDriver)

	ambulances := r.Group("/ambulances")
	{
		ambulances.GET("/hospital/:hospitalId", admin, h.ListByHospital)
		ambulances.GET("/hospital/:hospitalId/stream", admin, h.Stream)
		ambulances.GET("/my-ambulance", driver, h.MyAmbulance)
		ambulances.PUT("/update-location", driver, h.UpdateLocation)
		ambulances.POST("", admin, h.Create)
		ambulances.PUT("/:id", admin, h.Update)
		ambulances.DELETE("/:id", admin, h.Delete)
	}
}

func (h *Handler) ListByHospital(c *gin.Context) {
	hospitalID, ok := handler.ParseID(c, "hospitalId")
	if !ok {
		return
	}

	ambulances, err := h.svc.ListByHospital(c.Request.Context(), hospitalID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ambulances))
}

// Stream relays the hospital's ambulance updates as server-sent events until
// the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	hospitalID, ok := handler.ParseID(c, "hospitalId")
	if !ok {
		return
	}
	hospital, err := h.hospitals.Get(c.Request.Context(), hospitalID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, err := h.notifier.Subscribe(ctx, *hospital)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	// The server write timeout would otherwise cut the stream.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("ambulance_update", string(msg))
			return true
		case <-ticker.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}

func (h *Handler) MyAmbulance(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	ambulance, err := h.svc.GetByDriver(c.Request.Context(), principal.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ambulance))
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	var req model.LocationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	ambulance, err := h.svc.UpdateLocation(c.Request.Context(), principal, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Location updated successfully", ambulance))
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	var req model.CreateAmbulanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	ambulance, err := h.svc.Create(c.Request.Context(), principal, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("Ambulance created successfully", ambulance))
}

func (h *Handler) Update(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAmbulanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	ambulance, err := h.svc.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Ambulance updated successfully", ambulance))
}

func (h *Handler) Delete(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), principal, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Ambulance deleted successfully", nil))
}
