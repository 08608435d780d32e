package lambda

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/labstack/echo/v4"

	"github.com/storacha/todos/internal/telemetry"
	"github.com/storacha/todos/pkg/aws"
	"github.com/storacha/todos/pkg/service/todos"
)

// HTTPHandlerBuilder is a function that creates a http.Handler from a config.
type HTTPHandlerBuilder func(aws.Config) (http.Handler, error)

// StartHTTPHandler starts a lambda handler that processes HTTP requests.
func StartHTTPHandler(makeHandler HTTPHandlerBuilder) {
	ctx := context.Background()
	cfg := aws.FromEnv(ctx)
	telemetry.SetupErrorReporting(cfg.SentryDSN, cfg.SentryEnvironment)

	handler, err := makeHandler(cfg)
	if err != nil {
		telemetry.ReportError(err)
		panic(err)
	}

	lambda.StartWithOptions(httpadapter.NewV2(handler).ProxyWithContext, lambda.WithContext(ctx))
}

// TodoHandlerBuilder creates the echo handler for a single route from the
// to-do service.
type TodoHandlerBuilder func(todos.Todos) echo.HandlerFunc

// StartTodoHandler starts a lambda that serves one to-do route. The service is
// constructed once per cold start.
func StartTodoHandler(method string, path string, makeHandler TodoHandlerBuilder) {
	StartHTTPHandler(func(cfg aws.Config) (http.Handler, error) {
		service, err := aws.Construct(cfg)
		if err != nil {
			return nil, err
		}
		e := todos.NewEcho()
		e.Add(method, path, makeHandler(service))
		return e, nil
	})
}
