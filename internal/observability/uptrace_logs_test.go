package observability

import (
	"testing"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestShouldSkipOTelLog(t *testing.T) {
	t.Parallel()

	if !shouldSkipOTelLog("http_request", map[string]any{"http_path": "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if shouldSkipOTelLog("http_request", map[string]any{"http_path": "/v1/internal/ingestion/matches"}) {
		t.Fatalf("did not expect ingestion request log to be skipped")
	}
	if shouldSkipOTelLog("match ingested", map[string]any{"http_path": "/healthz"}) {
		t.Fatalf("did not expect non-http_request event to be skipped")
	}
}

func TestBuildOTelLogAttributes_SortedKeys(t *testing.T) {
	t.Parallel()

	attrs := buildOTelLogAttributes(map[string]any{"game_id": "g1", "attempt": int64(2), "payload": nil})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "attempt" || attrs[0].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute: %+v", attrs[0])
	}
	if attrs[1].Key != "game_id" || attrs[1].Value.AsString() != "g1" {
		t.Fatalf("unexpected game_id attribute: %+v", attrs[1])
	}
	if attrs[2].Key != "payload" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute: %+v", attrs[2])
	}
}

func TestToOTelLogValue_Map(t *testing.T) {
	t.Parallel()

	v := toOTelLogValue(map[string]any{"matches": 11, "committed": true}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	if items := v.AsMap(); len(items) != 2 {
		t.Fatalf("expected 2 map items, got %d", len(items))
	}
}

func TestOTelLogCore_RespectsLevel(t *testing.T) {
	t.Parallel()

	core := newOTelLogCore("dev", zapcore.WarnLevel)
	if core.Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled for warn core")
	}
	withFields := core.With([]zapcore.Field{{Key: "component", Type: zapcore.StringType, String: "geoguessr"}})
	if !withFields.Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error should be enabled")
	}
	if err := withFields.Write(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "boom"}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
}
