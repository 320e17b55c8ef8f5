// Package notifier 把交易循环里的关键事件（开平仓、划转、熔断、做市、
// 周期状态）推送到外部渠道。
package notifier

// Notifier 事件推送出口，实现方自行负责渲染与重试。
// 组件只构造 Message，不关心投递细节。
type Notifier interface {
	Push(msg Message) error
}
