package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jonuar/Donacrypto/internal/core/ports"
)

type SessionHandler struct {
	session ports.SessionService
}

func NewSessionHandler(session ports.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

// Get reports the current session without touching the network.
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) Login(c echo.Context) error {
	var req ports.LoginInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.session.Login(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) Register(c echo.Context) error {
	var req ports.RegisterInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.session.Register(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "account created, you can now log in"})
}

func (h *SessionHandler) Logout(c echo.Context) error {
	h.session.Logout()
	return c.JSON(http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) DeleteAccount(c echo.Context) error {
	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.session.DeleteAccount(c.Request().Context(), req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
