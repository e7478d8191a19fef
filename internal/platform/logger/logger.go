package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        *redactor
}

type Option func(*options)

type options struct {
	level     string
	noRedact  bool
	hashSalt  string
	extraKeys []string
}

// WithLevel overrides the mode's default level ("debug", "info", ...).
// Unknown names keep the default.
func WithLevel(level string) Option {
	return func(o *options) { o.level = level }
}

// WithRedaction turns field redaction on or off. It is on by default.
func WithRedaction(enabled bool) Option {
	return func(o *options) { o.noRedact = !enabled }
}

// WithHashSalt salts the hashes written for author fields.
func WithHashSalt(salt string) Option {
	return func(o *options) { o.hashSalt = strings.TrimSpace(salt) }
}

// WithRedactKeys adds field name fragments whose values are always redacted.
func WithRedactKeys(keys ...string) Option {
	return func(o *options) { o.extraKeys = append(o.extraKeys, keys...) }
}

// New builds a logger for mode: "production" or "prod" writes JSON at info,
// "test" or "nop" discards, anything else is the console encoder at debug.
func New(mode string, opts ...Option) (*Logger, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	var r *redactor
	if !o.noRedact {
		r = newRedactor(o.hashSalt, o.extraKeys)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "test", "nop":
		return &Logger{SugaredLogger: zap.NewNop().Sugar(), redact: r}, nil
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(o.level, zapcore.InfoLevel))
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(o.level, zapcore.DebugLevel))
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{SugaredLogger: zapLogger.Sugar(), redact: r}, nil
}

func parseLevel(raw string, def zapcore.Level) zapcore.Level {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return def
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return def
	}
	return lvl
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.redact.fields(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.redact.fields(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.redact.fields(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.redact.fields(keysAndValues)...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.redact.fields(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.redact.fields(keysAndValues)...),
		redact:        l.redact,
	}
}

// redactor rewrites key/value pairs before they reach zap. A nil redactor
// passes everything through.
type redactor struct {
	salt string
	keys []string
}

func newRedactor(salt string, extra []string) *redactor {
	keys := []string{"token", "authorization", "password", "secret", "cookie", "idempotency", "dsn"}
	for _, k := range extra {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keys = append(keys, k)
		}
	}
	return &redactor{salt: salt, keys: keys}
}

func (r *redactor) fields(kv []interface{}) []interface{} {
	if r == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		name := toString(kv[i])
		out = append(out, name, r.value(strings.ToLower(strings.TrimSpace(name)), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	if key == "" {
		return val
	}
	for _, k := range r.keys {
		if strings.Contains(key, k) {
			return redacted
		}
	}
	// Authors are hashed, not dropped, so one person's lines still group together.
	if key == "user_id" || key == "actor" {
		return r.hash(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(strings.ToLower(strings.TrimSpace(k)), inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (r *redactor) hash(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	_, _ = h.Write([]byte(r.salt))
	_, _ = h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
