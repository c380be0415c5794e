/*
Package order - 订单 API 控制器

职责:
1. 接收 HTTP 请求，解析参数
2. 调用应用服务处理业务逻辑
3. 使用 response 包统一处理响应和错误

错误处理原则:
1. 参数绑定错误: 使用 response.HandleError 直接返回 400
2. 业务错误: 使用 response.HandleAppError 自动映射状态码
   - 购物车为空 / 库存不足 / 优惠券无法使用 -> 422
   - 地址或订单不存在 -> 404
   - 并发冲突 -> 409，retryable=true
*/
package order

import (
	"net/http"

	"marketplace/api/ctxutil"
	"marketplace/api/response"
	orderapp "marketplace/application/order"

	"github.com/gin-gonic/gin"
)

// Controller 订单控制器
type Controller struct {
	orderService *orderapp.CheckoutService
}

// NewController 创建订单控制器
func NewController(orderService *orderapp.CheckoutService) *Controller {
	return &Controller{orderService: orderService}
}

// RegisterRoutes 注册订单路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	orderGroup := router.Group("/orders")
	{
		orderGroup.POST("/checkout", c.Checkout)
		orderGroup.GET("/:id", c.GetOrder)
		orderGroup.POST("/:id/cancel", c.CancelOrder)
		orderGroup.PUT("/:id/status", c.UpdateOrderStatus)
	}
	router.GET("/users/:userId/orders", c.GetUserOrders)
}

// Checkout 从购物车创建订单
// POST /api/v1/orders/checkout
func (c *Controller) Checkout(ctx *gin.Context) {
	var req orderapp.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	order, err := c.orderService.CreateOrderFromCart(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, order, "order created successfully")
}

// GetOrder 获取订单信息
// GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	order, err := c.orderService.GetOrder(ctxutil.WithRequestID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "order retrieved successfully")
}

// GetUserOrders 获取用户订单，支持 status / from / to / cancellable 过滤
// GET /api/v1/users/:userId/orders
func (c *Controller) GetUserOrders(ctx *gin.Context) {
	var query orderapp.ListOrdersQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.HandleError(ctx, err, "invalid query parameters", http.StatusBadRequest)
		return
	}

	orders, err := c.orderService.SearchUserOrders(ctxutil.WithRequestID(ctx), ctx.Param("userId"), query)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, orders, "user orders retrieved successfully")
}

// CancelOrder 取消订单并回补库存
// POST /api/v1/orders/:id/cancel
func (c *Controller) CancelOrder(ctx *gin.Context) {
	var req orderapp.CancelOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	order, err := c.orderService.CancelOrder(ctxutil.WithRequestID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "order cancelled successfully")
}

// UpdateOrderStatus 更新订单状态
// PUT /api/v1/orders/:id/status
func (c *Controller) UpdateOrderStatus(ctx *gin.Context) {
	var req orderapp.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	order, err := c.orderService.UpdateOrderStatus(ctxutil.WithRequestID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "order status updated successfully")
}
