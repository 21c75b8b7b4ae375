package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrelay_store_loads_total",
		Help: "Snapshot loads by result (ok, degraded)",
	}, []string{"result"})
	saveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrelay_store_saves_total",
		Help: "Snapshot saves by result (ok, error)",
	}, []string{"result"})
)
