package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"
	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/todos/pkg/build"
)

var log = logging.Logger("telemetry")

// SetupErrorReporting configures the Sentry SDK for error reporting. Reporting
// is disabled when dsn is empty.
func SetupErrorReporting(dsn string, environment string) {
	if dsn == "" {
		log.Debug("sentry DSN not configured, error reporting disabled")
		return
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     build.Version,
		// lambdas may be frozen as soon as the response is sent
		Transport: sentry.NewHTTPSyncTransport(),
	})
	if err != nil {
		log.Errorf("sentry.Init: %s", err)
	}
}

// ReportError reports an error to Sentry
func ReportError(err error) {
	sentry.CaptureException(err)
}

// Flush waits for buffered events to be sent.
func Flush() {
	sentry.Flush(2 * time.Second)
}
