package model

import "fmt"

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// transitions 合法的状态转移表，cancelled/refunded 为终态
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled, StatusRefunded},
	StatusCompleted:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// InvalidTransitionError 非法状态转移
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

// CanTransition 是否允许从 from 转移到 to；同状态转移视为合法的 no-op
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition 校验状态转移，非法时返回 InvalidTransitionError
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// ValidPriors 返回允许转移到 to 的前置状态集合（不含 to 本身），
// 仓储层用它做条件更新，保证转移校验发生在写入时刻
func ValidPriors(to Status) []Status {
	var priors []Status
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				priors = append(priors, from)
			}
		}
	}
	return priors
}

// IsTerminal 是否为终态
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// CanCancel 仅 pending/processing 状态的订单可取消
// 调用方必须在取消时刻用最新读取的订单重新校验，状态可能已被 Webhook 并发推进
func CanCancel(order *Order) bool {
	return order.Status == StatusPending || order.Status == StatusProcessing
}
