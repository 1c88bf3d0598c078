package handlers

import (
	"go-pos-billing/internal/auth"
	"go-pos-billing/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Routes mounts every endpoint on r. Registration is opt-in.
func (h *Handler) Routes(r *gin.Engine, allowRegistration bool) {
	r.GET("/health", h.Health)
	r.POST("/login", h.Login)
	if allowRegistration {
		r.POST("/register", h.Register)
	}

	authed := middleware.AuthMiddleware(h.auth)
	r.POST("/logout", authed, h.Logout)

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(authed)
	{
		// PUBLIC TO STAFF & ADMIN
		api.GET("/stock", h.ListStock)
		api.GET("/stock/summary", h.StockSummary)
		api.GET("/stock/:id", h.GetStock)
		api.GET("/categories", h.ListCategories)

		api.GET("/cart", h.GetCart)
		api.POST("/cart/lines", h.AddCartLine)
		api.PATCH("/cart/lines/:index", h.ChangeCartLine)
		api.DELETE("/cart/lines/:index", h.RemoveCartLine)
		api.DELETE("/cart", h.ClearCart)

		api.POST("/bills", h.CommitBill)
		api.GET("/bills/:id", h.GetBill)
		api.GET("/reports/daily", h.GetDailyReport)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/stock", h.CreateStock)
			admin.PUT("/stock/:id", h.UpdateStock)
			admin.DELETE("/stock/:id", h.DeleteStock)
			admin.POST("/categories", h.CreateCategory)
			admin.GET("/reports/daily/export", h.ExportDailyReport)
			admin.GET("/commits/pending", h.PendingCommits)
			admin.POST("/ask", h.AskAI)
		}
	}
}
