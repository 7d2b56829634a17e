package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts direct message attempts by outcome.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_messages_total",
		Help: "Direct messages by outcome (sent, offline, invalid)",
	}, []string{"outcome"})

	// PushDeliveryMisses counts messages persisted but not pushed because the
	// receiver's connection vanished after the presence check.
	PushDeliveryMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postshare_push_delivery_misses_total",
		Help: "Persisted messages whose push event could not be delivered",
	})

	// PushDrops counts outbound frames dropped by the push channel.
	PushDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_push_drops_total",
		Help: "Push frames dropped by reason",
	}, []string{"reason"})

	// OnlineUsers is the gauge of users with a registered push connection.
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postshare_online_users",
		Help: "Users currently registered in the presence registry",
	})

	// RenameSteps counts rename cascade steps by step name and result.
	RenameSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_rename_steps_total",
		Help: "Rename cascade steps executed by step and result",
	}, []string{"step", "result"})
)
