package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltvault_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	vaultMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltvault_vault_mutations_total",
		Help: "Vault item and folder mutations by operation.",
	}, []string{"op"})
)
