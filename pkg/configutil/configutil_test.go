package configutil

import (
	"strings"
	"testing"
)

func TestValidateSettingsReportsMissingAndUnknown(t *testing.T) {
	err := ValidateSettings(map[string]any{
		"Brokers": "",
		"colour":  "red",
	}, Schema{Required: []string{"brokers", "topic"}})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "missing: brokers, topic") {
		t.Fatalf("unexpected missing list: %s", msg)
	}
	if !strings.Contains(msg, "unknown: colour") {
		t.Fatalf("unexpected unknown list: %s", msg)
	}
}

func TestValidateSettingsNormalizesKeys(t *testing.T) {
	err := ValidateSettings(map[string]any{"Memtable-Size": 64}, Schema{Optional: []string{"memtable_size"}})
	if err != nil {
		t.Fatalf("expected normalized key to validate, got %v", err)
	}
}

func TestDecodeArgsWeakTyping(t *testing.T) {
	var args struct {
		Item     string `mapstructure:"item"`
		Quantity int    `mapstructure:"quantity"`
		Note     *string
	}
	err := DecodeArgs(map[string]any{"item": "bread", "quantity": "3", "note": "extra soft"}, &args)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if args.Item != "bread" || args.Quantity != 3 {
		t.Fatalf("unexpected decode result %+v", args)
	}
	if args.Note == nil || *args.Note != "extra soft" {
		t.Fatalf("expected note pointer to be set")
	}
}

func TestDecodeArgsFloatToInt(t *testing.T) {
	var args struct {
		Limit int `mapstructure:"limit"`
	}
	if err := DecodeArgs(map[string]any{"limit": float64(4)}, &args); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if args.Limit != 4 {
		t.Fatalf("expected 4, got %d", args.Limit)
	}
}

func TestDecodeArgsRejectsGarbage(t *testing.T) {
	var args struct {
		Quantity int `mapstructure:"quantity"`
	}
	if err := DecodeArgs(map[string]any{"quantity": "lots"}, &args); err == nil {
		t.Fatalf("expected error for non-numeric quantity")
	}
}

func TestValueHelpers(t *testing.T) {
	if IntValue(nil, 7) != 7 {
		t.Fatalf("expected fallback")
	}
	n := 0
	if IntValue(&n, 7) != 0 {
		t.Fatalf("expected explicit zero")
	}
	if err := RequireString("  ", "data.dir"); err == nil {
		t.Fatalf("expected required error")
	}
}
