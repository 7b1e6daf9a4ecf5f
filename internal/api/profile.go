package api

import (
	"net/http"

	"storefront-service/internal/service"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type verificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type registerRequest struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone"`
	VerificationCode string `json:"verificationCode" validate:"required"`
}

type staffActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// RequestVerification sends a code to the email --> POST /api/verification/request
func (h *ProfileHandler) RequestVerification(c echo.Context) error {
	req := verificationRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.profileService.RequestVerification(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]interface{}{"success": true})
}

// Register creates the caller's profile with the role from the token
// --> POST /api/profiles
func (h *ProfileHandler) Register(c echo.Context) error {
	req := registerRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	claims := currentClaims(c)

	profile, err := h.profileService.Register(c.Request().Context(), service.RegisterRequest{
		Subject:          claims.Subject,
		Role:             claims.EffectiveRole(),
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		VerificationCode: req.VerificationCode,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "profile": profile})
}

// Me --> GET /api/profiles/me
func (h *ProfileHandler) Me(c echo.Context) error {
	profile, err := h.profileService.GetProfile(c.Request().Context(), currentClaims(c).Subject)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "profile": profile})
}

// ListStaff --> GET /api/staff
func (h *ProfileHandler) ListStaff(c echo.Context) error {
	staff, err := h.profileService.ListStaff(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "staff": staff})
}

// SetStaffActive --> PUT /api/staff/:subject/active
func (h *ProfileHandler) SetStaffActive(c echo.Context) error {
	req := staffActiveRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	profile, err := h.profileService.SetStaffActive(c.Request().Context(), c.Param("subject"), *req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "profile": profile})
}
