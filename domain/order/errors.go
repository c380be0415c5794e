/*
Package order - 订单领域错误定义

设计原则:
1. 使用哨兵错误(sentinel errors)支持 errors.Is() 类型安全判断
2. 每个错误同时归类到 shared 的错误分类 (ErrBusinessRule / ErrInvalidInput / ErrNotFound)
3. 错误构造函数在创建时捕获堆栈，便于定位错误发生点
*/
package order

import (
	"errors"

	"marketplace/domain/shared"
)

// ============================================================================
// 订单领域哨兵错误 (Sentinel Errors)
// ============================================================================

var (
	// ErrInvalidOrderStateTransition 无效的订单状态转换
	ErrInvalidOrderStateTransition = errors.New("invalid order state transition")

	// ErrEmptyOrderItems 订单项为空
	ErrEmptyOrderItems = errors.New("order must have at least one item")

	// ErrCannotModifyPlacedOrder 订单已提交，不能再修改订单项或价格
	ErrCannotModifyPlacedOrder = &orderDomainError{
		sentinel: errors.New("placed orders cannot be modified"),
		category: shared.ErrBusinessRule,
		message:  "placed orders cannot be modified",
	}

	// ErrInvalidQuantity 无效的订单项数量
	ErrInvalidQuantity = &orderDomainError{
		sentinel: errors.New("quantity must be positive"),
		category: shared.ErrInvalidInput,
		field:    "quantity",
		message:  "quantity must be positive",
	}
)

// ============================================================================
// 订单领域错误构造函数
// ============================================================================

// NewInvalidOrderStateError 创建无效状态转换错误
func NewInvalidOrderStateError(currentState, targetState string) error {
	return &orderDomainError{
		sentinel: ErrInvalidOrderStateTransition,
		category: shared.ErrBusinessRule,
		message:  "cannot transition order from " + currentState + " to " + targetState,
		stack:    shared.CaptureStack(3),
	}
}

// NewEmptyOrderItemsError 创建订单项为空错误
func NewEmptyOrderItemsError() error {
	return &orderDomainError{
		sentinel: ErrEmptyOrderItems,
		category: shared.ErrBusinessRule,
		field:    "items",
		message:  "order must have at least one item",
		stack:    shared.CaptureStack(3),
	}
}

// ============================================================================
// 订单领域错误结构体（内部使用）
// ============================================================================

type orderDomainError struct {
	sentinel error     // 哨兵错误，用于 errors.Is()
	category error     // shared 错误分类
	field    string    // 字段名（可选）
	message  string    // 错误消息
	stack    []uintptr // 调用栈
}

func (e *orderDomainError) Error() string {
	return e.message
}

func (e *orderDomainError) Unwrap() []error {
	return []error{e.sentinel, e.category}
}

// Stack 实现 shared.Stacker 接口
func (e *orderDomainError) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	return shared.FormatStack(e.stack)
}
