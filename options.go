package roomlog

import (
	"encoding/json"
	"log/slog"

	"github.com/meshchat/roomlog/event"
	"github.com/meshchat/roomlog/l10n"
	"github.com/meshchat/roomlog/observability"
	"github.com/meshchat/roomlog/room"
)

// Log is the root room event log.
type Log struct {
	config    Config
	store     event.Store
	rooms     *room.Service
	validator *event.Validator
	localizer l10n.Localizer
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	logger    *slog.Logger
}

// Option configures a Log instance.
type Option func(*Log) error

// New creates a new Log with the given options.
func New(opts ...Option) (*Log, error) {
	l := &Log{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.store == nil {
		return nil, ErrNoStore
	}
	l.wireServices()
	return l, nil
}

// WithStore sets the append-log engine backing the Log instance.
func WithStore(s event.Store) Option {
	return func(l *Log) error {
		l.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Log instance.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) error {
		l.logger = logger
		return nil
	}
}

// WithSource overrides the process-local default origin tag.
func WithSource(src string) Option {
	return func(l *Log) error {
		l.config.Source = src
		return nil
	}
}

// WithLocalizer sets the localization lookup for user-visible strings
// written into payloads.
func WithLocalizer(localizer l10n.Localizer) Option {
	return func(l *Log) error {
		l.localizer = localizer
		return nil
	}
}

// WithPayloadSchema registers a JSON Schema validated against the payload
// of every appended event of the given type.
func WithPayloadSchema(t event.Type, schema json.RawMessage) Option {
	return func(l *Log) error {
		if l.validator == nil {
			l.validator = event.NewValidator()
		}
		l.validator.Register(t, schema)
		return nil
	}
}

// WithMetrics sets the metric instruments recorded on appends and prunes.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Log) error {
		l.metrics = m
		return nil
	}
}

// WithTracer sets the tracer used to span prune runs.
func WithTracer(t *observability.Tracer) Option {
	return func(l *Log) error {
		l.tracer = t
		return nil
	}
}
