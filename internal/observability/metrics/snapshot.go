package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Snapshot is the JSON view served on /stats.
type Snapshot struct {
	CalendarFetches map[string]int64 `json:"calendar_fetches"`
	SlotFetches     map[string]int64 `json:"slot_fetches"`
	StaleResponses  int64            `json:"stale_responses"`
	Submissions     map[string]int64 `json:"submissions"`
	CacheLookups    map[string]int64 `json:"cache_lookups"`
	UpstreamCalls   map[string]int64 `json:"upstream_calls"`
}

// TakeSnapshot reads booking counters back out of a gatherer.
func TakeSnapshot(gatherer prometheus.Gatherer) Snapshot {
	snap := Snapshot{
		CalendarFetches: map[string]int64{},
		SlotFetches:     map[string]int64{},
		Submissions:     map[string]int64{},
		CacheLookups:    map[string]int64{},
		UpstreamCalls:   map[string]int64{},
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return snap
	}

	prefix := namespace + "_" + subsystem + "_"
	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case prefix + "calendar_fetch_total":
			sumCounters(mf, "outcome", snap.CalendarFetches)
		case prefix + "slot_fetch_total":
			sumCounters(mf, "outcome", snap.SlotFetches)
		case prefix + "submissions_total":
			sumCounters(mf, "outcome", snap.Submissions)
		case prefix + "catalog_cache_total":
			sumCounters(mf, "result", snap.CacheLookups)
		case prefix + "stale_slot_responses_total":
			for _, metric := range mf.Metric {
				if c := metric.GetCounter(); c != nil {
					snap.StaleResponses += int64(c.GetValue())
				}
			}
		case prefix + "upstream_latency_seconds":
			for _, metric := range mf.Metric {
				h := metric.GetHistogram()
				if h == nil {
					continue
				}
				snap.UpstreamCalls[labelValue(metric, "operation")] += int64(h.GetSampleCount())
			}
		}
	}
	return snap
}

func sumCounters(mf *dto.MetricFamily, label string, into map[string]int64) {
	for _, metric := range mf.Metric {
		if metric == nil {
			continue
		}
		c := metric.GetCounter()
		if c == nil {
			continue
		}
		into[labelValue(metric, label)] += int64(c.GetValue())
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp == nil {
			continue
		}
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
