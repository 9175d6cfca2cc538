package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/rebika14/eyee-wear-store/internal/auth"
	"github.com/rebika14/eyee-wear-store/internal/controllers"
	"github.com/rebika14/eyee-wear-store/internal/middleware"
)

// Register wires all storefront and admin routes.
func Register(
	r *gin.Engine,
	tokens *auth.TokenService,
	authCtrl *controllers.AuthController,
	cartCtrl *controllers.CartController,
	checkoutCtrl *controllers.CheckoutController,
	productCtrl *controllers.ProductController,
	orderCtrl *controllers.OrderController,
) {
	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimit())
	{
		authGroup.POST("/signup", authCtrl.Signup)
		authGroup.POST("/login", authCtrl.Login)
	}

	r.GET("/products", productCtrl.List)

	cart := r.Group("/cart")
	{
		cart.GET("", cartCtrl.GetCart)
		cart.POST("/items", cartCtrl.AddItem)
		cart.PATCH("/items/:product_id", cartCtrl.UpdateQuantity)
		cart.DELETE("/items/:product_id", cartCtrl.RemoveItem)
		cart.DELETE("", cartCtrl.ClearCart)
	}

	r.POST("/checkout", checkoutCtrl.Submit)
	r.GET("/checkout/callback", checkoutCtrl.Callback)

	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(tokens, "admin"))
	{
		admin.POST("/products", productCtrl.Create)
		admin.PUT("/products/:id", productCtrl.Update)
		admin.DELETE("/products/:id", productCtrl.Delete)

		admin.GET("/orders", orderCtrl.ListOrders)
		admin.PATCH("/orders/:id/status", orderCtrl.UpdateStatus)

		admin.GET("/customers", orderCtrl.ListCustomers)
	}
}
