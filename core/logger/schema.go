package logger

import "strings"

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// Closed vocabularies; values outside them are dropped (outcome, cache) or kept
// lower-cased (status).
var (
	statusValues  = set("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	cacheValues   = set("hit", "miss", "refresh")
	outcomeValues = set("ok", "fail", "cancelled", "rate_limited", "denied")
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

// normalizeEnum lower-cases v and reports whether it belongs to allowed.
func normalizeEnum(v string, allowed map[string]struct{}) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	_, ok := allowed[v]
	return v, ok
}

func normalizeStatus(status string) (string, bool) { return normalizeEnum(status, statusValues) }

func normalizeCache(cache string) (string, bool) { return normalizeEnum(cache, cacheValues) }

func normalizeOutcome(outcome string) (string, bool) { return normalizeEnum(outcome, outcomeValues) }

// defaultKeyOrder puts envelope and correlation keys first, then handler
// summary and lending fields, then errors and retry details.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "kind",
	"handler", "op", "cb_key", "outcome", "duration_ms", "messages", "kb",
	"operation", "slot_id", "order_id", "classification", "state", "posting", "amount", "seq",
	"count", "cache", "payload", "lang", "username",
	"mode", "listen", "public_url", "http_code",
	"db", "host", "port",
	"err", "err_code", "cause", "reason", "retryable", "attempts", "backoff_ms",
}
