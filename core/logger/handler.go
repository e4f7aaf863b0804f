package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders every record as one flat line (JSON object or
// key=value pairs) with keys in a fixed order.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = slices.Clone(defaultKeyOrder)
	}
	return &structuredHandler{cfg: cfg}
}

// Enabled reports whether level passes the configured threshold.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

// WithAttrs returns a copy of the handler that adds attrs to every record.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(slices.Clone(h.attrs), h.qualify(attrs)...)
	return &next
}

// WithGroup returns a copy of the handler that prefixes later keys with name.
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

// qualify applies the group prefix to attrs added after WithGroup.
func (h *structuredHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}
	return []slog.Attr{{Key: h.prefix, Value: slog.GroupValue(attrs...)}}
}

// Handle renders r and queues the line on the async writer.
func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	asJSON := h.cfg.format == formatJSON

	rec := record{}
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	rec["level"] = normalizeLevel(r.Level.String())
	if asJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}

	for _, a := range h.attrs {
		rec.add("", a)
	}
	var own []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)
		return true
	})
	for _, a := range h.qualify(own) {
		rec.add("", a)
	}
	rec.fromContext(ctx)

	if rid := rec.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if asJSON {
				rec.setDefault("rid_full", rid)
			}
			rec["rid"] = compact
		}
	}
	if rec.str("event") == "" {
		rec["event"] = cmpOr(r.Message, "unknown")
	}
	if rec.str("component") == "" {
		rec["component"] = "app"
	}
	rec.normalize()

	keys := rec.keys(h.cfg.keyOrder)
	var line []byte
	if asJSON {
		var err error
		if line, err = rec.json(keys); err != nil {
			return err
		}
	} else {
		line = rec.kv(keys)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func cmpOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// record is the flattened set of fields of one log line.
type record map[string]any

// add flattens groups into dotted keys and stores scalar values.
func (rec record) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			rec.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if v.Kind() == slog.KindDuration {
		rec[msKey(key)] = RoundMS(v.Duration()).Milliseconds()
		return
	}
	if val, ok := scalar(v); ok {
		rec[key] = val
	}
}

// msKey marks duration keys as milliseconds.
func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func scalar(v slog.Value) (any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return v.Bool(), true
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return int64(u), true
		}
		return v.Uint64(), true
	case slog.KindFloat64:
		return v.Float64(), true
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return nil, false
	case error:
		return x.Error(), true
	case fmt.Stringer:
		// decimal amounts, lending states and order ids
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

func (rec record) str(key string) string {
	switch v := rec[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (rec record) setDefault(key string, v any) {
	if _, ok := rec[key]; !ok {
		rec[key] = v
	}
}

// fromContext copies request metadata from ctx unless the record already has it.
func (rec record) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		rec.setDefault("rid", rid)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		rec.setDefault("update_id", id)
	}
	if id := UserIDFrom(ctx); id != 0 {
		rec.setDefault("user_id", id)
	}
	if id := ChatIDFrom(ctx); id != 0 {
		rec.setDefault("chat_id", id)
	}
	if name := HandlerFrom(ctx); name != "" {
		rec.setDefault("handler", name)
	}
}

// normalize maps closed vocabularies to their canonical form and drops empty values.
func (rec record) normalize() {
	rec["level"] = normalizeLevel(rec.str("level"))
	if s := rec.str("status"); s != "" {
		rec["status"], _ = normalizeStatus(s)
	}
	for key, fn := range map[string]func(string) (string, bool){
		"cache":   normalizeCache,
		"outcome": normalizeOutcome,
	} {
		if v := rec.str(key); v != "" {
			if canon, ok := fn(v); ok {
				rec[key] = canon
			} else {
				delete(rec, key)
			}
		}
	}
	for k, v := range rec {
		if v == nil || v == "" {
			delete(rec, k)
		}
	}
}

// keys lists the keys named in order first, then the rest alphabetically.
func (rec record) keys(order []string) []string {
	out := make([]string, 0, len(rec))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := rec[k]; ok && !listed[k] {
			out = append(out, k)
			listed[k] = true
		}
	}
	rest := make([]string, 0, len(rec)-len(out))
	for k := range rec {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func (rec record) json(keys []string) ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range keys {
		val, err := json.Marshal(rec[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %q: %w", k, err)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, k)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

func (rec record) kv(keys []string) []byte {
	var buf []byte
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, k...)
		buf = append(buf, '=')
		s := rec.str(k)
		if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			buf = strconv.AppendQuote(buf, s)
		} else {
			buf = append(buf, s...)
		}
	}
	return buf
}
