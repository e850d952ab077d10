package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baremetal-ci/kt-harness/types"
)

const (
	MetricsNamespace = "kt"
)

var (
	Debug                bool = true
	validOutcomes             = []types.Outcome{types.OutcomePass, types.OutcomeFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of executed kernel tests",
	}, []string{
		"board",
		"run_id",
		"name",
		"kind",
		"result",
	})

	suiteResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_results",
		Help:      "Result of kernel test suite runs",
	}, []string{
		"board",
		"run_id",
		"result",
	})

	suiteTestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_test_total",
		Help:      "Total number of kernel tests in a suite run",
	}, []string{
		"board",
		"run_id",
	})

	suiteTestPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_test_passed",
		Help:      "Number of passed kernel tests in a suite run",
	}, []string{
		"board",
		"run_id",
	})

	suiteTestFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_test_failed",
		Help:      "Number of failed kernel tests in a suite run",
	}, []string{
		"board",
		"run_id",
	})

	suiteDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_duration",
		Help:      "Duration of kernel test suite runs",
	}, []string{
		"board",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordTest(board string, runID string, name string, kind types.Kind, outcome types.Outcome) {
	if !isValidOutcome(outcome) {
		log.Error("RecordTest - invalid outcome", "outcome", outcome)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "tests_total",
			"board", board,
			"run_id", runID,
			"test", name,
			"kind", kind,
			"result", outcome)
	}
	testsTotal.WithLabelValues(board, runID, name, string(kind), string(outcome)).Inc()
}

func RecordSuite(
	board string,
	runID string,
	result types.Outcome,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	suiteResults.WithLabelValues(board, runID, string(result)).Set(1)
	suiteTestTotal.WithLabelValues(board, runID).Add(float64(total))
	suiteTestPassed.WithLabelValues(board, runID).Add(float64(passed))
	suiteTestFailed.WithLabelValues(board, runID).Add(float64(failed))
	suiteDuration.WithLabelValues(board, runID).Set(duration.Seconds())
}

func isValidOutcome(outcome types.Outcome) bool {
	return slices.Contains(validOutcomes, outcome)
}
