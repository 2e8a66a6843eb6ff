package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	subsvc "github.com/syedaatik8/LemmeWrite/internal/app/service/subscription"
	"github.com/syedaatik8/LemmeWrite/pkg/response"
	"github.com/syedaatik8/LemmeWrite/pkg/tool"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

type adminCreditRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
	// EventID keys the credit for idempotency. Omitted, a fresh id is
	// generated and the credit always allocates.
	EventID  string `json:"event_id"`
	Currency string `json:"currency"`
}

// @Summary      Manual points credit
// @Description  Credits points to a user under the manual event kind. Passing the same event_id twice is a suppressed no-op.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.adminCreditRequest true "Credit request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/points/credit [post]
func ApiAdminCredit(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adminCreditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.EventID == "" {
			req.EventID = tool.GenerateUUIDV7()
		}
		res, err := led.Credit(c.Request.Context(), &ledger.CreditRequest{
			UserID:          req.UserID,
			Amount:          req.Amount,
			ExternalEventID: req.EventID,
			Kind:            types.EventKindManual,
			Currency:        req.Currency,
		})
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidCredit) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Cleanup legacy duplicate allocations
// @Description  Removes all but the earliest counted allocation per (user, event). Balances are untouched.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/points/cleanup_duplicates [post]
func ApiAdminCleanupDuplicates(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		removed, err := led.CleanupLegacyDuplicates(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]int64{"removed": removed}))
	}
}

// @Summary      Subscription lookup
// @Description  Returns a user's subscription record for support tooling.
// @Tags         Admin
// @Produce      json
// @Param        user_id  query  string  true  "user id"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/subscription [get]
func ApiAdminSubscription(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		record, err := sub.FindByUserID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(record))
	}
}

func RegisterAdminRoutes(r gin.IRouter, led *ledger.Service, sub *subsvc.Service) {
	r.POST("/points/credit", ApiAdminCredit(led))
	r.POST("/points/cleanup_duplicates", ApiAdminCleanupDuplicates(led))
	r.GET("/subscription", ApiAdminSubscription(sub))
}
