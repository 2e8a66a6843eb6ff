package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/syedaatik8/LemmeWrite/internal/app/api/middleware"
	subsvc "github.com/syedaatik8/LemmeWrite/internal/app/service/subscription"
	"github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/response"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

type subscriptionInfo struct {
	PlanType    types.PlanType           `json:"plan_type"`
	DisplayName string                   `json:"display_name"`
	Status      types.SubscriptionStatus `json:"status"`
	ActivatedAt *time.Time               `json:"activated_at,omitempty"`
}

// @Summary      Current subscription
// @Description  Returns the signed-in user's subscription plan and status. Users without a subscription are on the free plan.
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/subscription [get]
func ApiCurrentSubscription(sub *subsvc.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(mw.UserIDKey)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing user identity"))
			return
		}
		record, err := sub.FindByUserID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		if record == nil {
			plan := cfg.DefaultPlan()
			c.JSON(http.StatusOK, response.OKT(subscriptionInfo{
				PlanType:    plan.Type,
				DisplayName: plan.DisplayName,
				Status:      types.SubscriptionStatusCreated,
			}))
			return
		}
		info := subscriptionInfo{
			PlanType: record.PlanType,
			Status:   record.Status,
		}
		if plan := cfg.PlanByType(record.PlanType); plan != nil {
			info.DisplayName = plan.DisplayName
		}
		info.ActivatedAt = record.ActivatedAt
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, sub *subsvc.Service, cfg *config.Config) {
	r.GET("", ApiCurrentSubscription(sub, cfg))
}
