package quotas

import (
	"github.com/gin-gonic/gin"
)

func SetupQuotaRoutes(router *gin.RouterGroup, controller Controller) {
	quotas := router.Group("/quotas")
	{
		quotas.GET("", controller.GetQuotas)                   // GET /api/v1/quotas - Read the local mirror
		quotas.POST("/reconcile", controller.ReconcileQuotas)  // POST /api/v1/quotas/reconcile - Run split-preserve-recreate
		quotas.POST("/import", controller.ImportQuotas)        // POST /api/v1/quotas/import - Refresh mirror for a range
	}
}
