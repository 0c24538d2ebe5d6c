package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x402-labs/facilitator-core/facilitator"
	"github.com/x402-labs/facilitator-core/internal/blacklist"
	"github.com/x402-labs/facilitator-core/types"
)

type handlers struct {
	facilitator *facilitator.Facilitator
	blacklist   *blacklist.Blacklist
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) supported(c echo.Context) error {
	return c.JSON(http.StatusOK, h.facilitator.Supported())
}

func (h *handlers) blacklistStatus(c echo.Context) error {
	evmEntries, solanaEntries, loadedAtStart := h.blacklist.Counters()
	return c.JSON(http.StatusOK, types.BlacklistResponse{
		EvmEntries:    evmEntries,
		SolanaEntries: solanaEntries,
		LoadedAtStart: loadedAtStart,
	})
}

func (h *handlers) verify(c echo.Context) error {
	var req types.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, types.VerifyResponse{
			Valid: false,
			Error: &types.ErrorResponse{Tag: types.ErrPayloadMismatch, Message: "malformed request body"},
		})
	}

	resp := h.facilitator.Verify(c.Request().Context(), req)
	status := http.StatusOK
	if resp.Error != nil {
		status = statusForTag(resp.Error.Tag)
	}
	return c.JSON(status, resp)
}

func (h *handlers) settle(c echo.Context) error {
	var req types.SettleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, types.SettleResponse{
			Success: false,
			Error:   &types.ErrorResponse{Tag: types.ErrPayloadMismatch, Message: "malformed request body"},
		})
	}

	resp := h.facilitator.Settle(c.Request().Context(), req)
	status := http.StatusOK
	if resp.Error != nil {
		status = statusForTag(resp.Error.Tag)
	}
	return c.JSON(status, resp)
}

func statusForTag(tag types.ErrorTag) int {
	return (&types.FacilitatorError{Tag: tag}).HTTPStatus()
}
