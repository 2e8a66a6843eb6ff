package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mw "github.com/syedaatik8/LemmeWrite/internal/app/api/middleware"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	"github.com/syedaatik8/LemmeWrite/pkg/response"
)

// @Summary      Points balance
// @Description  Returns the signed-in user's point balance, creating the account with the starting balance on first read.
// @Tags         Points
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/points/balance [get]
func ApiPointsBalance(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(mw.UserIDKey)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing user identity"))
			return
		}
		balance, err := led.Balance(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(balance))
	}
}

// @Summary      Points history
// @Description  Returns the signed-in user's allocation records, newest first.
// @Tags         Points
// @Produce      json
// @Security     BearerAuth
// @Param        from  query  int  false  "offset"
// @Param        size  query  int  false  "page size (default 50)"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/points/history [get]
func ApiPointsHistory(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(mw.UserIDKey)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing user identity"))
			return
		}
		from := 0
		if v := c.Query("from"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				from = n
			}
		}
		size := 50
		if v := c.Query("size"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				size = n
			} else {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid size"))
				return
			}
		}
		items, err := led.History(c.Request.Context(), userID, from, size)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

func RegisterPointsRoutes(r gin.IRouter, led *ledger.Service) {
	r.GET("/balance", ApiPointsBalance(led))
	r.GET("/history", ApiPointsHistory(led))
}
