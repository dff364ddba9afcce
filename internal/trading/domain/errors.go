package domain

import "errors"

var (
	// ErrInvalidQuantity 订单数量必须为正整数
	ErrInvalidQuantity = errors.New("order quantity must be positive")
	// ErrInvalidPrice 指定价必须为正数
	ErrInvalidPrice = errors.New("order price must be positive")
	// ErrInvalidOrderType 买卖方向必须是 BUY 或 SELL
	ErrInvalidOrderType = errors.New("order type must be BUY or SELL")
	// ErrPriceUnavailable 缺少参考价，无法准入订单
	ErrPriceUnavailable = errors.New("current market price unavailable")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotOrderOwner 订单不属于当前账户
	ErrNotOrderOwner = errors.New("order does not belong to this account")
	// ErrInvalidOrderState 订单状态不允许该操作
	ErrInvalidOrderState = errors.New("order state does not permit this operation")
)
