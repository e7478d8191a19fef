package logger

import (
	"strings"
	"testing"
)

func TestRedactorFields(t *testing.T) {
	r := newRedactor("", nil)
	out := r.fields([]interface{}{
		"token", "abc",
		"jwt_secret", "dev_secret",
		"user_id", "u1",
		"workspace_id", "w1",
	})
	if len(out) != 8 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if out[1] != redacted || out[3] != redacted {
		t.Fatalf("expected secrets redacted, got %v", out)
	}
	hashed, _ := out[5].(string)
	if !strings.HasPrefix(hashed, "hash:") {
		t.Fatalf("expected user_id hashed, got %v", out[5])
	}
	if out[7] != "w1" {
		t.Fatalf("workspace_id should pass through, got %v", out[7])
	}
}

func TestRedactorSaltChangesHash(t *testing.T) {
	a := newRedactor("", nil).hash("alice")
	b := newRedactor("pepper", nil).hash("alice")
	if a == b {
		t.Fatal("salt should change the author hash")
	}
	if a != newRedactor("", nil).hash("alice") {
		t.Fatal("hash should be stable")
	}
}

func TestRedactorCatchesBareJWTAndNestedMaps(t *testing.T) {
	r := newRedactor("", []string{"Slack_Signing"})
	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJ3b3Jrc3BhY2VfaWQiOiJ3MSJ9.sig"
	if got := r.value("detail", jwtish); got != redacted {
		t.Fatalf("expected JWT-looking value redacted, got %v", got)
	}
	if got := r.value("detail", "We will use PostgreSQL"); got != "We will use PostgreSQL" {
		t.Fatalf("plain text should pass through, got %v", got)
	}
	nested, _ := r.value("payload", map[string]interface{}{"slack_signing_key": "k", "text": "hi"}).(map[string]interface{})
	if nested["slack_signing_key"] != redacted || nested["text"] != "hi" {
		t.Fatalf("unexpected nested redaction: %v", nested)
	}
}

func TestRedactorOddLengthAndDisabled(t *testing.T) {
	out := newRedactor("", nil).fields([]interface{}{"decision_id", "d1", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
	var off *redactor
	in := []interface{}{"token", "abc"}
	if got := off.fields(in); got[1] != "abc" {
		t.Fatalf("nil redactor should pass through, got %v", got)
	}
}

func TestNewOptions(t *testing.T) {
	log, err := New("test", WithRedaction(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.redact != nil {
		t.Fatal("redaction should be off")
	}
	log, err = New("test", WithLevel("warn"), WithHashSalt("s"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.redact == nil || log.redact.salt != "s" {
		t.Fatalf("unexpected redactor: %+v", log.redact)
	}
	log.With("service", "x").Info("discarded", "k", "v")
	log.Sync()
}

func TestParseLevel(t *testing.T) {
	if parseLevel("WARN", 0).String() != "warn" {
		t.Fatal("expected warn")
	}
	if parseLevel("nonsense", 0).String() != "info" {
		t.Fatal("unknown level should keep default")
	}
}
