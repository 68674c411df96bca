package sms

import "github.com/rcrowley/go-metrics"

// Metrics instruments the traffic a client moves. Counters never reset;
// meters carry rates for the submit and deliver directions.
type Metrics struct {
	Submits    metrics.Counter // submits handed to the transport
	Responses  metrics.Counter // matched submit responses
	Delivers   metrics.Counter // mobile-originated messages
	Reports    metrics.Counter // delivery reports
	Timeouts   metrics.Counter // window entries swept without a response
	Reconnects metrics.Counter // link drops that restart the connect cycle

	SubmitRate  metrics.Meter
	DeliverRate metrics.Meter
}

func newMetrics() *Metrics {
	return &Metrics{
		Submits:     metrics.NewCounter(),
		Responses:   metrics.NewCounter(),
		Delivers:    metrics.NewCounter(),
		Reports:     metrics.NewCounter(),
		Timeouts:    metrics.NewCounter(),
		Reconnects:  metrics.NewCounter(),
		SubmitRate:  metrics.NewMeter(),
		DeliverRate: metrics.NewMeter(),
	}
}
