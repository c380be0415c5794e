// Package cart - 购物车 API 控制器
package cart

import (
	"net/http"

	"marketplace/api/ctxutil"
	"marketplace/api/response"
	cartapp "marketplace/application/cart"

	"github.com/gin-gonic/gin"
)

// Controller 购物车控制器
type Controller struct {
	cartService *cartapp.Service
}

func NewController(cartService *cartapp.Service) *Controller {
	return &Controller{cartService: cartService}
}

// RegisterRoutes 注册购物车路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	cartGroup := router.Group("/carts/:userId")
	{
		cartGroup.GET("", c.GetCart)
		cartGroup.POST("/items", c.AddItem)
		cartGroup.DELETE("/items/:productId", c.RemoveItem)
	}
}

// GetCart GET /api/v1/carts/:userId
func (c *Controller) GetCart(ctx *gin.Context) {
	cart, err := c.cartService.GetCart(ctxutil.WithRequestID(ctx), ctx.Param("userId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, cart, "cart retrieved successfully")
}

// AddItem POST /api/v1/carts/:userId/items
func (c *Controller) AddItem(ctx *gin.Context) {
	var req cartapp.AddItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	cart, err := c.cartService.AddItem(ctxutil.WithRequestID(ctx), ctx.Param("userId"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, cart, "item added to cart")
}

// RemoveItem DELETE /api/v1/carts/:userId/items/:productId
func (c *Controller) RemoveItem(ctx *gin.Context) {
	cart, err := c.cartService.RemoveItem(ctxutil.WithRequestID(ctx), ctx.Param("userId"), ctx.Param("productId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, cart, "item removed from cart")
}
