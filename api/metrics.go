package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName             = "github.com/kuzcou/plannerdig/api"
	observabilityEventName = "observability.event"
	requestEventName       = "http.request"
	requestEventDomain     = "plannerdig.api"
	metricsContextKey      = "plannerdig.metrics"
)

// requestMetrics collects per-request timings and emits them once as a
// structured log entry and a span.
type requestMetrics struct {
	logger *log.Logger
	route  string
	method string
	start  time.Time
	span   trace.Span

	authDuration   time.Duration
	fetchDuration  time.Duration
	encodeDuration time.Duration
	items          int
	errorStage     string
	cause          error
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
	return &requestMetrics{
		logger: logger,
		route:  route,
		method: method,
		start:  time.Now(),
		span:   span,
	}, ctx
}

func (m *requestMetrics) ObserveAuth(d time.Duration) {
	if m != nil && d > 0 {
		m.authDuration = d
	}
}

func (m *requestMetrics) ObserveFetch(d time.Duration) {
	if m != nil && d > 0 {
		m.fetchDuration += d
	}
}

func (m *requestMetrics) ObserveEncode(d time.Duration) {
	if m != nil && d > 0 {
		m.encodeDuration = d
	}
}

// SetItems records how many records the response carries.
func (m *requestMetrics) SetItems(n int) {
	if m == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	m.items = n
}

// Fail marks the stage that failed and the underlying cause.
func (m *requestMetrics) Fail(stage string, err error) {
	if m == nil {
		return
	}
	if stage != "" {
		m.errorStage = stage
	}
	if err != nil {
		m.cause = err
	}
}

func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	if err == nil {
		err = m.cause
	}
	severityText, severityNumber := severityForStatus(status, err)

	attrs := []attribute.KeyValue{
		attribute.String("http.route", m.route),
		attribute.String("http.method", m.method),
		attribute.Int("http.status_code", status),
		attribute.Float64("plannerdig.request.total_ms", durationToMillis(time.Since(m.start))),
		attribute.Int("plannerdig.request.items", m.items),
	}
	if m.authDuration > 0 {
		attrs = append(attrs, attribute.Float64("plannerdig.request.auth_ms", durationToMillis(m.authDuration)))
	}
	if m.fetchDuration > 0 {
		attrs = append(attrs, attribute.Float64("plannerdig.request.fetch_ms", durationToMillis(m.fetchDuration)))
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("plannerdig.request.encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("plannerdig.request.error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", requestEventName),
			attribute.String("event.domain", requestEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, attrs...)
		m.span.AddEvent(observabilityEventName, trace.WithAttributes(eventAttrs...))
		switch {
		case severityText == "ERROR":
			desc := http.StatusText(status)
			if err != nil {
				desc = err.Error()
			}
			m.span.SetStatus(codes.Error, desc)
		case status < http.StatusBadRequest:
			m.span.SetStatus(codes.Ok, "")
		}
		defer m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attributeMap(attrs),
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	m.logger.WithFields(fields).Log(levelForSeverity(severityText), observabilityEventName)
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	case err != nil:
		return "ERROR", 17
	default:
		return "INFO", 9
	}
}

func levelForSeverity(text string) log.Level {
	switch text {
	case "ERROR":
		return log.ErrorLevel
	case "WARN":
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func attributeMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

// RequestMetrics starts a requestMetrics for every request and logs it when
// the handler returns.
func RequestMetrics(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			m, ctx := newRequestMetrics(req.Context(), logger, req.Method, route)
			c.SetRequest(req.WithContext(ctx))
			c.Set(metricsContextKey, m)

			err := next(c)
			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			m.Log(status, err)
			return err
		}
	}
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsContextKey).(*requestMetrics)
	return m
}
