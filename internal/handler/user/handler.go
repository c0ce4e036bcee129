package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/handler"
	"github.com/jwalitptl/hospital-ops/internal/middleware"
	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/service/user"
	"github.com/jwalitptl/hospital-ops/internal/service/workhour"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
)

// defaultRangeDays is the look-back used when no startDate is given.
const defaultRangeDays = 30

type Handler struct {
	users     user.UserServicer
	workHours workhour.WorkHourServicer
	today     func() model.Date
}

func NewHandler(users user.UserServicer, workHours workhour.WorkHourServicer) *Handler {
	return &Handler{users: users, workHours: workHours, today: model.Today}
}

// RegisterRoutes expects r to be behind Authenticate.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authz *middleware.AuthMiddleware) {
	admin := authz.RequireRoles(model.RoleHospitalAdmin)
	clinical := authz.RequireRoles(model.RoleHospitalAdmin, model.RoleDoctor, model.RoleNurse)
	shifts := authz.RequireRoles(model.RoleDoctor, model.RoleNurse)

	users := r.Group("/users")
	{
		users.GET("/hospital/:hospitalId", admin, h.ListStaff)
		users.GET("/profile", h.Profile)
		users.POST("", admin, h.CreateUser)
		users.PUT("/:id", admin, h.UpdateUser)
		users.DELETE("/:id", admin, h.DeleteUser)

		users.GET("/:id/work-hours", clinical, h.ListWorkHours)
		users.GET("/:id/work-hours/summary", clinical, h.WorkHourSummary)
		users.POST("/work-hours", shifts, h.LogWorkHours)
	}
}

func (h *Handler) ListStaff(c *gin.Context) {
	hospitalID, ok := handler.ParseID(c, "hospitalId")
	if !ok {
		return
	}

	staff, err := h.users.ListStaff(c.Request.Context(), hospitalID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	profiles := make([]*model.UserProfile, 0, len(staff))
	for _, u := range staff {
		profiles = append(profiles, model.NewUserProfile(u, nil))
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profiles))
}

func (h *Handler) Profile(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	profile, err := h.users.Profile(c.Request.Context(), principal)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) CreateUser(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	u, err := h.users.Create(c.Request.Context(), principal, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("User created successfully", model.NewUserProfile(u, nil)))
}

func (h *Handler) UpdateUser(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	u, err := h.users.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("User updated successfully", model.NewUserProfile(u, nil)))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), principal, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("User deleted successfully", nil))
}

func (h *Handler) LogWorkHours(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	var req model.LogWorkHourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	entry, err := h.workHours.Log(c.Request.Context(), principal, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("Work hours logged successfully", entry))
}

func (h *Handler) ListWorkHours(c *gin.Context) {
	userID, start, end, ok := h.workHourQuery(c)
	if !ok {
		return
	}

	entries, err := h.workHours.ListForUserInRange(c.Request.Context(), userID, start, end)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) WorkHourSummary(c *gin.Context) {
	userID, start, end, ok := h.workHourQuery(c)
	if !ok {
		return
	}

	summary, err := h.workHours.Summary(c.Request.Context(), userID, start, end)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

// workHourQuery resolves the target user and date range. Only admins may read
// another user's hours.
func (h *Handler) workHourQuery(c *gin.Context) (uuid.UUID, model.Date, model.Date, bool) {
	principal, ok := handler.Principal(c)
	if !ok {
		return uuid.Nil, model.Date{}, model.Date{}, false
	}
	userID, ok := handler.ParseID(c, "id")
	if !ok {
		return uuid.Nil, model.Date{}, model.Date{}, false
	}
	if userID != principal.UserID && !principal.HasRole(model.RoleHospitalAdmin) {
		handler.RespondError(c, apperrors.Forbidden("you can only view your own work hours"))
		return uuid.Nil, model.Date{}, model.Date{}, false
	}

	end := h.today()
	start := end.AddDays(-defaultRangeDays)
	var err error
	if v := c.Query("startDate"); v != "" {
		if start, err = model.ParseDate(v); err != nil {
			handler.RespondError(c, apperrors.NewValidation("startDate must be YYYY-MM-DD", err))
			return uuid.Nil, model.Date{}, model.Date{}, false
		}
	}
	if v := c.Query("endDate"); v != "" {
		if end, err = model.ParseDate(v); err != nil {
			handler.RespondError(c, apperrors.NewValidation("endDate must be YYYY-MM-DD", err))
			return uuid.Nil, model.Date{}, model.Date{}, false
		}
	}
	return userID, start, end, true
}
