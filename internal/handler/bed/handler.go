package bed

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-ops/internal/handler"
	"github.com/jwalitptl/hospital-ops/internal/middleware"
	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/service/bed"
)

type Handler struct {
	svc bed.BedServicer
}

func NewHandler(svc bed.BedServicer) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects r to be behind Authenticate.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authz *middleware.AuthMiddleware) {
	admin := authz.RequireRoles(model.RoleHospitalAdmin)
	clinical := authz.RequireRoles(model.RoleHospitalAdmin, model.RoleDoctor, model.RoleNurse)
	admitting := authz.RequireRoles(model.RoleHospitalAdmin, model.RoleDoctor)

	beds := r.Group("/beds")
	{
		beds.GET("/hospital/:hospitalId", clinical, h.ListByHospital)
		beds.GET("/:id", clinical, h.Get)
		beds.POST("", admin, h.Create)
		beds.PUT("/:id", clinical, h.Update)
		beds.PUT("/:id/assign", admitting, h.Assign)
		beds.PUT("/:id/release", admitting, h.Release)
		beds.DELETE("/:id", admin, h.Delete)
	}
}

func (h *Handler) ListByHospital(c *gin.Context) {
	hospitalID, ok := handler.ParseID(c, "hospitalId")
	if !ok {
		return
	}

	beds, err := h.svc.ListByHospital(c.Request.Context(), hospitalID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(beds))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	bed, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(bed))
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	var req model.CreateBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	bed, err := h.svc.Create(c.Request.Context(), principal, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("Bed created successfully", bed))
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
	var attrs model.BedAttributes
	if err := c.ShouldBindJSON(&attrs); err != nil {
		handler.BindError(c, err)
		return
	}

	bed, err := h.svc.UpdateAttributes(c.Request.Context(), principal, id, attrs)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Bed updated successfully", bed))
}

func (h *Handler) Assign(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var assignment model.BedAssignment
	if err := c.ShouldBindJSON(&assignment); err != nil {
		handler.BindError(c, err)
		return
	}

	bed, err := h.svc.Assign(c.Request.Context(), principal, id, assignment)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Bed assigned successfully", bed))
}

func (h *Handler) Release(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	bed, err := h.svc.Release(c.Request.Context(), principal, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Bed released successfully", bed))
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
	c.JSON(http.StatusOK, handler.NewMessageResponse("Bed deleted successfully", nil))
}
