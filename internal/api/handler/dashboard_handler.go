package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
)

type DashboardHandler struct {
	dashboard ports.DashboardService
	required  []string
}

// NewDashboardHandler serves the creator dashboard. required lists the
// currencies a creator is expected to have wallets for.
func NewDashboardHandler(dashboard ports.DashboardService, required []string) *DashboardHandler {
	if len(required) == 0 {
		required = domain.DefaultRequiredCurrencies
	}
	return &DashboardHandler{dashboard: dashboard, required: required}
}

func (h *DashboardHandler) view(report *domain.InitReport) dashboardResponse {
	state := h.dashboard.Snapshot()
	return dashboardResponse{
		DashboardState: state,
		WalletSummary:  toWalletsView(state.Wallets, h.required),
		Report:         report,
	}
}

// formError attaches the recorded form errors to err.
func (h *DashboardHandler) formError(err error) error {
	return &FormError{Err: err, Fields: h.dashboard.Snapshot().FormErrors}
}

func (h *DashboardHandler) Initialize(c echo.Context) error {
	report := h.dashboard.InitializeDashboard(c.Request().Context())
	return c.JSON(http.StatusOK, h.view(&report))
}

func (h *DashboardHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.view(nil))
}

func (h *DashboardHandler) Statistics(c echo.Context) error {
	if err := h.dashboard.FetchStatistics(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.dashboard.Snapshot().Statistics)
}

// ── Wallets ───────────────────────────────────────────────────────────────────

func (h *DashboardHandler) walletsView(c echo.Context, status int) error {
	return c.JSON(status, toWalletsView(h.dashboard.Snapshot().Wallets, h.required))
}

func (h *DashboardHandler) ListWallets(c echo.Context) error {
	if err := h.dashboard.FetchWallets(c.Request().Context()); err != nil {
		return err
	}
	return h.walletsView(c, http.StatusOK)
}

func (h *DashboardHandler) AddWallet(c echo.Context) error {
	var req ports.WalletInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.dashboard.AddWallet(c.Request().Context(), req); err != nil {
		return h.formError(err)
	}
	return h.walletsView(c, http.StatusCreated)
}

func (h *DashboardHandler) UpdateWallet(c echo.Context) error {
	var req updateWalletRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.dashboard.UpdateWallet(c.Request().Context(), c.Param("currency"), req.WalletAddress); err != nil {
		return h.formError(err)
	}
	return h.walletsView(c, http.StatusOK)
}

func (h *DashboardHandler) DeleteWallet(c echo.Context) error {
	if err := h.dashboard.DeleteWallet(c.Request().Context(), c.Param("currency")); err != nil {
		return err
	}
	return h.walletsView(c, http.StatusOK)
}

func (h *DashboardHandler) SetDefaultWallet(c echo.Context) error {
	if err := h.dashboard.SetDefaultWallet(c.Request().Context(), c.Param("currency")); err != nil {
		return err
	}
	return h.walletsView(c, http.StatusOK)
}

// ── Followers and posts ───────────────────────────────────────────────────────

func (h *DashboardHandler) Followers(c echo.Context) error {
	var page, limit int
	if err := echo.QueryParamsBinder(c).Int("page", &page).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}
	result, err := h.dashboard.FetchFollowers(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *DashboardHandler) Posts(c echo.Context) error {
	var page int
	if err := echo.QueryParamsBinder(c).Int("page", &page).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page must be an integer")
	}
	result, err := h.dashboard.FetchPosts(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *DashboardHandler) CreatePost(c echo.Context) error {
	var req ports.PostInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	id, err := h.dashboard.CreatePost(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createPostResponse{Message: "post created", PostID: id})
}

func (h *DashboardHandler) DeletePost(c echo.Context) error {
	if err := h.dashboard.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ── Profile ───────────────────────────────────────────────────────────────────

func (h *DashboardHandler) UpdateProfile(c echo.Context) error {
	var req ports.ProfileInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.dashboard.UpdateProfile(c.Request().Context(), req); err != nil {
		return h.formError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "profile updated"})
}

func (h *DashboardHandler) ClearFormErrors(c echo.Context) error {
	h.dashboard.ClearFormErrors()
	return c.NoContent(http.StatusNoContent)
}
