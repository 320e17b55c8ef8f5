package notifier

import (
	"fmt"
	"strings"
	"time"
)

// 交易循环各事件的推送模板，统一走 Message 渲染。

func BotStarted(balance float64, pairCount int, dryRun bool) Message {
	mode := "LIVE"
	if dryRun {
		mode = "DRY-RUN"
	}
	return Message{
		Icon:  "🤖",
		Title: "Cypher 已启动",
		Sections: []Section{{
			Lines: []string{
				fmt.Sprintf("模式: %s", mode),
				fmt.Sprintf("账户余额: $%.2f", balance),
				fmt.Sprintf("扫描币种: %d", pairCount),
			},
		}},
		At: time.Now(),
	}
}

func EntryOpened(symbol string, side string, quantity, entry, stopLoss, takeProfit, confidence float64, reason string) Message {
	icon := "🟢"
	if strings.EqualFold(side, "short") {
		icon = "🔴"
	}
	return Message{
		Icon:  icon,
		Title: fmt.Sprintf("开仓 %s %s", strings.ToUpper(side), symbol),
		Sections: []Section{
			{
				Lines: []string{
					fmt.Sprintf("数量: %.6f", quantity),
					fmt.Sprintf("入场: %.6f", entry),
					fmt.Sprintf("止损: %.6f", stopLoss),
					fmt.Sprintf("止盈: %.6f", takeProfit),
					fmt.Sprintf("置信度: %.0f%%", confidence*100),
				},
			},
			{Head: "依据", Lines: []string{reason}},
		},
		At: time.Now(),
	}
}

func PositionClosed(symbol string, side string, pnlUSD, pnlPct float64, reason string) Message {
	icon := "✅"
	if pnlUSD < 0 {
		icon = "❌"
	}
	return Message{
		Icon:  icon,
		Title: fmt.Sprintf("平仓 %s %s", strings.ToUpper(side), symbol),
		Sections: []Section{{
			Lines: []string{
				fmt.Sprintf("盈亏: $%.2f (%.2f%%)", pnlUSD, pnlPct*100),
				fmt.Sprintf("原因: %s", reason),
			},
		}},
		At: time.Now(),
	}
}

func WithdrawalSent(amount float64, wallet string) Message {
	return Message{
		Icon:  "💸",
		Title: "利润已划转",
		Sections: []Section{{
			Lines: []string{
				fmt.Sprintf("金额: $%.2f", amount),
				fmt.Sprintf("目标: %s", shortWallet(wallet)),
			},
		}},
		At: time.Now(),
	}
}

func DailyHalt(lossPct float64, cooldown time.Duration) Message {
	return Message{
		Icon:  "🛑",
		Title: "触发日内亏损熔断",
		Sections: []Section{{
			Lines: []string{
				fmt.Sprintf("当日回撤: %.1f%%", lossPct),
				fmt.Sprintf("暂停开仓: %s", cooldown),
			},
		}},
		At: time.Now(),
	}
}

func MMCycle(pair string, mid float64, spreadBps float64, bidQty, askQty float64) Message {
	return Message{
		Icon:  "📊",
		Title: fmt.Sprintf("做市刷新 %s", pair),
		Sections: []Section{{
			Lines: []string{
				fmt.Sprintf("中间价: %.6f", mid),
				fmt.Sprintf("价差: %.1f bps", spreadBps),
				fmt.Sprintf("买/卖挂单: %.6f / %.6f", bidQty, askQty),
			},
		}},
		At: time.Now(),
	}
}

func StatusReport(balance float64, openPositions int, summary string) Message {
	return Message{
		Icon:  "📈",
		Title: "周期状态",
		Sections: []Section{{
			Lines: []string{
				fmt.Sprintf("余额: $%.2f", balance),
				fmt.Sprintf("持仓: %d", openPositions),
				fmt.Sprintf("战绩: %s", summary),
			},
		}},
		At: time.Now(),
	}
}

func ShutdownSummary(summary string, uptime time.Duration) Message {
	return Message{
		Icon:  "👋",
		Title: "Cypher 已停机",
		Sections: []Section{{
			Lines: []string{
				fmt.Sprintf("运行时长: %s", uptime.Round(time.Second)),
				fmt.Sprintf("战绩: %s", summary),
			},
		}},
		At: time.Now(),
	}
}

func shortWallet(wallet string) string {
	wallet = strings.TrimSpace(wallet)
	if len(wallet) <= 12 {
		return wallet
	}
	return wallet[:6] + "..." + wallet[len(wallet)-4:]
}
