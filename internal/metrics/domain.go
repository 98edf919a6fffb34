package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 登录结果标签。
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
	LoginLocked      = "locked"
)

var (
	jobMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "mutations_total",
			Help:      "求职记录写操作次数，按操作类型区分。",
		},
		[]string{"op"},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "登录请求次数，按结果区分。",
		},
		[]string{"outcome"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "total",
			Help:      "CSV 导出次数，按结果区分。",
		},
		[]string{"result"},
	)
)

// ObserveJobMutation 记录一次成功的 create/update/delete。
func ObserveJobMutation(op string) {
	jobMutations.WithLabelValues(op).Inc()
}

// ObserveLogin 记录一次登录结果。
func ObserveLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func ObserveExport(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	exportsTotal.WithLabelValues(result).Inc()
}
