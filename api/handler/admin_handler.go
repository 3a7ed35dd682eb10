package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"leadtrack/internal/dto"
	"leadtrack/internal/entity"
	"leadtrack/internal/repository"
	"leadtrack/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	Service  *service.AdminService
	Validate *validator.Validate
}

func NewAdminHandler(svc *service.AdminService, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{Service: svc, Validate: validate}
}

// ListUsers accepts search, role, is_active, is_staff and is_superuser
// filters.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	filter := repository.UserFilter{
		Search: c.QueryParam("search"),
		Role:   entity.UserRole(c.QueryParam("role")),
	}
	for param, target := range map[string]**bool{
		"is_active":    &filter.IsActive,
		"is_staff":     &filter.IsStaff,
		"is_superuser": &filter.IsSuperuser,
	} {
		value, err := parseBoolFilter(c, param)
		if err != nil {
			return writeError(c, http.StatusBadRequest, err)
		}
		*target = value
	}
	limit, offset := parseLimitOffset(c)
	users, err := h.Service.ListUsers(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponsesFromEntities(users))
}

func (h *AdminHandler) UpdateUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	var req dto.UpdateUserRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			return writeValidationError(c, err)
		}
	}
	if req.IsActive == nil && req.Role == nil {
		return writeError(c, http.StatusBadRequest, service.ErrInvalidInput)
	}

	ctx := c.Request().Context()
	var user *entity.User
	if req.Role != nil {
		if user, err = h.Service.SetUserRole(ctx, userID, entity.UserRole(*req.Role)); err != nil {
			return writeServiceError(c, err)
		}
	}
	if req.IsActive != nil {
		if user, err = h.Service.SetUserActive(ctx, userID, *req.IsActive); err != nil {
			return writeServiceError(c, err)
		}
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AdminHandler) UserActivity(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	limit, _ := parseLimitOffset(c)
	logs, err := h.Service.UserActivity(c.Request().Context(), userID, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SecurityLogResponsesFromEntities(logs))
}

// ListTokenRecords accepts email, token_type and is_used filters.
func (h *AdminHandler) ListTokenRecords(c echo.Context) error {
	filter := repository.TokenRecordFilter{
		Email:     c.QueryParam("email"),
		TokenType: entity.TokenType(c.QueryParam("token_type")),
	}
	used, err := parseBoolFilter(c, "is_used")
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	filter.IsUsed = used
	limit, offset := parseLimitOffset(c)
	records, err := h.Service.ListTokenRecords(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.TokenRecordResponsesFromEntities(records, time.Now().UTC()))
}

// parseBoolFilter returns nil when the query parameter is absent.
func parseBoolFilter(c echo.Context, param string) (*bool, error) {
	raw := c.QueryParam(param)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s filter", param)
	}
	return &value, nil
}

func parseLimitOffset(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}
