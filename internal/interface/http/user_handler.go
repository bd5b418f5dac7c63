package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-ddd-user-service/internal/application"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/apperror"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/pkg/response"
	"github.com/oksasatya/go-ddd-user-service/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Age   *int   `json:"age" binding:"omitempty,min=0"`
}

type updateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,email"`
	Age   *int    `json:"age" binding:"omitempty,min=0"`
}

func (r updateUserRequest) patch() entity.UserPatch {
	return entity.UserPatch{Name: r.Name, Email: r.Email, Age: r.Age}
}

// bindError answers 422 when the body decoded but failed field rules,
// 400 when it could not be decoded at all.
func bindError(c *gin.Context, err error) {
	if validation.IsFieldError(err) {
		response.Error[any](c, http.StatusUnprocessableEntity, "Validation Failed", validation.ToDetails(err))
		return
	}
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in := entity.NewUser{Name: req.Name, Email: req.Email}
	if req.Age != nil {
		in.Age = *req.Age
	}

	u, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "user created", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.GetAll(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	u, err := h.Svc.GetOne(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	patch := req.patch()
	if patch.IsEmpty() {
		response.Error[any](c, http.StatusBadRequest, "at least one field must be supplied", nil)
		return
	}
	id, ok := h.userID(c)
	if !ok {
		return
	}

	u, err := h.Svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	res, err := h.Svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message, nil)
}

// Search queries the users index; size is optional and clamped by the service.
func (h *UserHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter 'q' is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	docs, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "search results", map[string]any{"count": len(docs), "q": q})
}

func (h *UserHandler) userID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error[any](c, http.StatusBadRequest, fmt.Sprintf("id '%s' is not valid", id), nil)
		return "", false
	}
	return id, true
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	if ae, ok := apperror.As(err); ok {
		if ae.Kind == apperror.KindServerError && h.Logger != nil {
			h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(ae.Message)
		}
		response.Error[any](c, ae.Status(), ae.Message, gin.H{"kind": ae.Kind})
		return
	}
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("unhandled error")
	}
	response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
}
