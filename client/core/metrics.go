// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const metricsNamespace = "cdex"

// metrics are the account's prometheus collectors.
type metrics struct {
	ordersPlaced    *prometheus.CounterVec
	ordersCancelled prometheus.Counter
	fills           *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	stakeActions    *prometheus.CounterVec
	balance         prometheus.Gauge
	staked          prometheus.Gauge
	openOrders      prometheus.Gauge
	unreadNotes     prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		ordersPlaced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_placed_total",
			Help:      "Orders acknowledged, by side and type.",
		}, []string{"side", "type"}),
		ordersCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled.",
		}),
		fills: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "order_fills_total",
			Help:      "Fills applied to open orders, by side.",
		}, []string{"side"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_actions_total",
			Help:      "Account actions that failed validation, by action.",
		}, []string{"action"}),
		stakeActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "staking_actions_total",
			Help:      "Successful stakes and unstakes.",
		}, []string{"action"}),
		balance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "wallet_balance_miau",
			Help:      "Spendable MIAU wallet balance.",
		}),
		staked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "staked_miau",
			Help:      "Staked MIAU.",
		}),
		openOrders: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_orders",
			Help:      "Orders in the open set.",
		}),
		unreadNotes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "unread_notifications",
			Help:      "Stored notifications not yet acknowledged.",
		}),
	}
}

// setAccount updates the account gauges.
func (m *metrics) setAccount(balance, staked decimal.Decimal, openOrders int) {
	m.balance.Set(balance.InexactFloat64())
	m.staked.Set(staked.InexactFloat64())
	m.openOrders.Set(float64(openOrders))
}

func (m *metrics) reject(action string) {
	m.rejections.WithLabelValues(action).Inc()
}
