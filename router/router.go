package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/controllers"
	"github.com/yeremiapane/hpp-app/middlewares"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/notify"
	"gorm.io/gorm"
)

type Options struct {
	CORSOrigins   []string
	InvitationTTL time.Duration
	// RateLimiter is applied to every route when set.
	RateLimiter *middlewares.RateLimiter
}

// SetupRouter wires every controller. ctx bounds the background cleanup of
// the login rate limiter.
func SetupRouter(ctx context.Context, db *gorm.DB, hub *notify.Hub, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.RateLimit())
	}

	// Inisialisasi controller
	notificationCtrl := controllers.NewNotificationController(db, hub)
	notifier := notificationCtrl.Notifier()
	authCtrl := controllers.NewAuthController(db)
	orgCtrl := controllers.NewOrganizationController(db, notifier, opts.InvitationTTL)
	unitCtrl := controllers.NewUnitController(db)
	ingredientCtrl := controllers.NewIngredientController(db, notifier)
	recipeCtrl := controllers.NewRecipeController(db)
	menuCtrl := controllers.NewMenuController(db)
	bundleCtrl := controllers.NewBundleController(db)
	dashboardCtrl := controllers.NewDashboardController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter(ctx))
	{
		public.POST("/auth/register", authCtrl.Register)
		public.POST("/auth/login", authCtrl.Login)
		public.POST("/invitations/:token/accept", orgCtrl.AcceptInvitation)
	}

	// WebSocket endpoint dengan middleware khusus
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(), notificationCtrl.WebSocketHandler)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.EnhancedAuthMiddleware(authCtrl.Membership()))

	auth.POST("/auth/logout", authCtrl.Logout)
	auth.POST("/auth/switch-organization", authCtrl.SwitchOrganization)
	auth.GET("/auth/me", authCtrl.Me)

	// ORGANIZATION
	auth.GET("/organization", orgCtrl.GetOrganization)
	auth.GET("/organization/members", orgCtrl.GetMembers)

	admin := auth.Group("/")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		admin.PATCH("/organization", orgCtrl.UpdateOrganization)
		admin.PATCH("/organization/members/:user_id", orgCtrl.UpdateMemberRole)
		admin.DELETE("/organization/members/:user_id", orgCtrl.RemoveMember)
		admin.POST("/organization/invitations", orgCtrl.CreateInvitation)
		admin.GET("/organization/invitations", orgCtrl.GetInvitations)
		admin.DELETE("/organization/invitations/:id", orgCtrl.RevokeInvitation)

		admin.POST("/units", unitCtrl.CreateUnit)
		admin.PATCH("/units/:id", unitCtrl.UpdateUnit)
		admin.DELETE("/units/:id", unitCtrl.DeleteUnit)
		admin.POST("/units/seed", unitCtrl.SeedDefaults)
	}

	// UNITS
	auth.GET("/units", unitCtrl.GetAllUnits)
	auth.GET("/units/check", unitCtrl.CheckUnits)
	auth.GET("/units/conversion", unitCtrl.GetConversion)
	auth.GET("/units/legacy/conversion", unitCtrl.GetLegacyConversion)
	auth.GET("/units/:id", unitCtrl.GetUnitByID)

	// INGREDIENTS
	auth.GET("/ingredients", ingredientCtrl.GetAllIngredients)
	auth.GET("/ingredients/categories", ingredientCtrl.GetCategories)
	auth.POST("/ingredients", ingredientCtrl.CreateIngredient)
	auth.GET("/ingredients/:id", ingredientCtrl.GetIngredientByID)
	auth.PATCH("/ingredients/:id", ingredientCtrl.UpdateIngredient)
	auth.DELETE("/ingredients/:id", ingredientCtrl.DeleteIngredient)
	auth.GET("/ingredients/:id/price-history", ingredientCtrl.GetPriceHistory)
	auth.DELETE("/ingredients/:id/price-history/:history_id", ingredientCtrl.DeletePriceHistory)
	auth.POST("/ingredients/:id/upgrade-pricing", ingredientCtrl.UpgradePricing)

	// RECIPES
	auth.GET("/recipes", recipeCtrl.GetAllRecipes)
	auth.POST("/recipes", recipeCtrl.CreateRecipe)
	auth.GET("/recipes/:id", recipeCtrl.GetRecipeByID)
	auth.PATCH("/recipes/:id", recipeCtrl.UpdateRecipe)
	auth.DELETE("/recipes/:id", recipeCtrl.DeleteRecipe)
	auth.POST("/recipes/:id/duplicate", recipeCtrl.DuplicateRecipe)

	// MENUS
	auth.GET("/menus", menuCtrl.GetAllMenus)
	auth.GET("/menus/categories", menuCtrl.GetCategories)
	auth.POST("/menus", menuCtrl.CreateMenu)
	auth.GET("/menus/:id", menuCtrl.GetMenuByID)
	auth.PATCH("/menus/:id", menuCtrl.UpdateMenu)
	auth.DELETE("/menus/:id", menuCtrl.DeleteMenu)

	// BUNDLES
	auth.GET("/bundles", bundleCtrl.GetAllBundles)
	auth.POST("/bundles", bundleCtrl.CreateBundle)
	auth.POST("/bundles/calculate", bundleCtrl.CalculateBundle)
	auth.GET("/bundles/:id", bundleCtrl.GetBundleByID)
	auth.PATCH("/bundles/:id", bundleCtrl.UpdateBundle)
	auth.DELETE("/bundles/:id", bundleCtrl.DeleteBundle)

	// DASHBOARD & REPORTS
	auth.GET("/dashboard/stats", dashboardCtrl.GetStats)
	auth.GET("/reports/hpp.pdf", dashboardCtrl.DownloadHPPReport)

	// NOTIFICATIONS
	auth.GET("/notifications", notificationCtrl.GetNotifications)
	auth.GET("/notifications/unread-count", notificationCtrl.GetUnreadCount)
	auth.PATCH("/notifications/:id/read", notificationCtrl.MarkAsRead)
	auth.DELETE("/notifications/:id", notificationCtrl.DeleteNotification)

	return r
}
