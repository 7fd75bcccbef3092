package advertiser

import "github.com/renaissanceio/renio/metrics"

const namespace = "advertiser"

var advertisingGauge = metrics.NewGauge(
	"advertising",
	namespace,
	"1 while the local identity is on the air",
	[]string{},
).WithLabelValues()
