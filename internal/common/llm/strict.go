package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/common/metrics"
)

// Schema names a JSON Schema document used to constrain model output.
type Schema struct {
	Name       string
	Definition map[string]interface{}
}

// Sleeper waits d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type invokeOptions struct {
	backoff time.Duration
	sleep   Sleeper
	logger  logger.Logger
}

// InvokeOption customizes InvokeStrictJSON.
type InvokeOption func(*invokeOptions)

// WithBackoff sets the wait between attempts. Zero by default.
func WithBackoff(d time.Duration) InvokeOption {
	return func(o *invokeOptions) { o.backoff = d }
}

// WithSleeper replaces the wait implementation.
func WithSleeper(s Sleeper) InvokeOption {
	return func(o *invokeOptions) { o.sleep = s }
}

// WithLogger logs every attempt at debug level.
func WithLogger(l logger.Logger) InvokeOption {
	return func(o *invokeOptions) { o.logger = l }
}

// InvokeStrictJSON asks model for a reply matching schema and decodes it into T.
// It makes at most retry+1 model calls. A reply that fails validation is sent
// back with a correction hint while attempts remain; once they are exhausted a
// *errors.SchemaValidationError carrying the last reply is returned. Errors from
// the model itself are returned unchanged and are not retried.
func InvokeStrictJSON[T any](ctx context.Context, model Model, messages []Message, schema Schema, retry int, opts ...InvokeOption) (*T, error) {
	if err := checkConversation(messages); err != nil {
		return nil, err
	}
	if retry < 0 {
		retry = 0
	}

	o := invokeOptions{sleep: ContextSleep, logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.Definition))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}

	conversation := make([]Message, len(messages), len(messages)+2*retry)
	copy(conversation, messages)

	var raw, detail string
	for attempt := 1; attempt <= retry+1; attempt++ {
		if attempt > 1 {
			if err := o.sleep(ctx, o.backoff); err != nil {
				return nil, err
			}
			conversation = append(conversation, AssistantMessage(raw), UserMessage(correctionHint(schema.Name, detail)))
		}

		raw, err = model.Complete(ctx, conversation)
		if err != nil {
			metrics.StrictJSONAttempts.WithLabelValues(schema.Name, "error").Inc()
			return nil, err
		}

		var value *T
		value, detail = decodeStrict[T](compiled, raw)
		if value != nil {
			metrics.StrictJSONAttempts.WithLabelValues(schema.Name, "valid").Inc()
			o.logger.Debug("model reply matched schema", map[string]interface{}{
				"schema":  schema.Name,
				"attempt": attempt,
			})
			return value, nil
		}

		metrics.StrictJSONAttempts.WithLabelValues(schema.Name, "invalid").Inc()
		o.logger.Debug("model reply rejected", map[string]interface{}{
			"schema":  schema.Name,
			"attempt": attempt,
			"detail":  detail,
		})
	}

	return nil, &apperrors.SchemaValidationError{
		Schema:   schema.Name,
		Raw:      raw,
		Detail:   detail,
		Attempts: retry + 1,
	}
}

// decodeStrict returns the decoded value, or nil and the reason it was rejected.
func decodeStrict[T any](schema *gojsonschema.Schema, raw string) (*T, string) {
	doc := extractJSON(raw)
	if doc == "" {
		return nil, "empty response"
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Sprintf("invalid JSON: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, strings.Join(msgs, "; ")
	}

	var value T
	if err := json.Unmarshal([]byte(doc), &value); err != nil {
		return nil, fmt.Sprintf("decode: %v", err)
	}
	return &value, ""
}

// extractJSON trims whitespace and a surrounding markdown code fence.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func correctionHint(schemaName, detail string) string {
	return fmt.Sprintf(
		"Your previous reply did not match the %s schema: %s\nReturn the corrected JSON object only, with every required field and no extra text.",
		schemaName, detail,
	)
}

func checkConversation(messages []Message) error {
	var hasSystem, hasUser bool
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			hasSystem = true
		case RoleUser:
			hasUser = true
		}
	}
	if !hasSystem || !hasUser {
		return apperrors.NewInvalidRequestError("conversation needs at least one system and one user message")
	}
	return nil
}
