package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitor_pass_passes_issued_total",
		Help: "Total number of passes issued",
	})
	checkIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitor_pass_checkins_total",
		Help: "Total number of visitor check-ins",
	})
	checkOuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitor_pass_checkouts_total",
		Help: "Total number of visitor check-outs",
	})
	otpEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitor_pass_otp_total",
		Help: "OTP codes sent and verification outcomes",
	}, []string{"event"})
	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitor_pass_notifications_total",
		Help: "Notification emails by kind and result",
	}, []string{"kind", "result"})
)

func PassIssued() { passesIssued.Inc() }

func CheckIn() { checkIns.Inc() }

func CheckOut() { checkOuts.Inc() }

// OTP records an OTP lifecycle event: sent, verified or rejected.
func OTP(event string) { otpEvents.WithLabelValues(event).Inc() }

func Notification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notifications.WithLabelValues(kind, result).Inc()
}
