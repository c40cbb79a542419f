package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	convey.Convey("Given metrics manager creation", t, func() {
		convey.Convey("When created with defaults", func() {
			m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			convey.So(m, convey.ShouldNotBeNil)
			convey.So(m.namespace, convey.ShouldEqual, "huddle")
			convey.So(m.subsystem, convey.ShouldEqual, "formation")
			convey.So(m.enabled, convey.ShouldBeTrue)
		})

		convey.Convey("When created with options", func() {
			reg := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("custom"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithMetricsEnabled(false),
				WithRefreshInterval(time.Minute),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithMetricPrefix("pfx"),
				WithPrometheusRegistry(reg),
			)

			convey.So(m.namespace, convey.ShouldEqual, "custom")
			convey.So(m.subsystem, convey.ShouldEqual, "test")
			convey.So(m.histogramBuckets, convey.ShouldResemble, []float64{1, 2, 3})
			convey.So(m.enabled, convey.ShouldBeFalse)
			convey.So(m.refreshInterval, convey.ShouldEqual, time.Minute)
			convey.So(m.customLabels["env"], convey.ShouldEqual, "test")
			convey.So(m.metricPrefix, convey.ShouldEqual, "pfx")
		})
	})
}

func TestGlobalFunctions(t *testing.T) {
	convey.Convey("Given the global metrics manager", t, func() {
		convey.Convey("When recording formation metrics", func() {
			convey.So(func() {
				RecordFormationRequest("ai")
				RecordFormationRequest("ai_feedback")
				RecordFormationLatency(12.5)
				RecordTrialEvaluated()
				RecordTrialFitness(55.0)
				RecordBestFitness(78.2)
				RecordTeamScore(66.67)
				RecordEvaluationRequest()
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When recording feedback metrics", func() {
			convey.So(func() {
				RecordFeedbackRowAccepted()
				RecordFeedbackRowDropped("too_few_personas")
				RecordFeedbackRowDropped("rating_out_of_range")
				UpdateLearnedPairs(6)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When recording oracle metrics", func() {
			convey.So(func() {
				RecordOracleCall()
				RecordOracleError()
				RecordOracleLatency(0.2)
				RecordBundleSourceError()
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When updating roster and repository gauges", func() {
			convey.So(func() {
				UpdateRosterActors(42)
				UpdateRosterPersonas(12)
				UpdateRosterSelections(84)
				UpdateRepositoryShardCount(8)
				RecordRepositoryUpdateLatency(0.05)
				RecordRepositoryQueryLatency(0.02)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When recording queue and worker metrics", func() {
			convey.So(func() {
				UpdateTrialQueueCapacity(1024)
				UpdateTrialQueueSize(10)
				RecordTrialQueueEnqueue()
				RecordTrialQueueDequeue()
				RecordTrialQueueEnqueueError()
				RecordTrialQueueLatency(0.01)
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(1.5)
				RecordWorkerError()
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When recording HTTP and error metrics", func() {
			convey.So(func() {
				RecordHTTPRequest("/form-groups", "POST", "200")
				RecordHTTPRequestDuration("/form-groups", "POST", "200", 15.0)
				RecordErrorByComponent("queue", "enqueue_failed")
				RecordErrorByType("validation", "warning")
				RecordErrorByEndpoint("/form-groups", "POST", "bad_request")
				RecordErrorLatency("oracle", "timeout", 5.0)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When recording system metrics", func() {
			convey.So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(25)
				RecordSystemGCPauseTime(0.3)
			}, convey.ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	convey.Convey("Given the custom registry", t, func() {
		reg := GetRegistry()

		convey.So(reg, convey.ShouldNotBeNil)

		families, err := reg.Gather()
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(families), convey.ShouldBeGreaterThan, 0)
	})
}
