package repository

import (
	"testing"

	"condo-ballots/internal/domain/ballot"
)

func TestOptionsCodec(t *testing.T) {
	raw, err := EncodeOptions(nil)
	if err != nil || string(raw) != "[]" {
		t.Fatalf("nil options should encode as [], got %q %v", raw, err)
	}

	in := []ballot.Option{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}}
	raw, err = EncodeOptions(in)
	if err != nil {
		t.Fatalf("EncodeOptions: %v", err)
	}
	out, err := DecodeOptions(raw)
	if err != nil || len(out) != 2 || out[1].Label != "Beta" {
		t.Fatalf("DecodeOptions: %v %+v", err, out)
	}
}

func TestDecodeRejectsMalformedRows(t *testing.T) {
	bad := []string{
		`{"id":"a"}`,
		`[{"id":"","label":"x"}]`,
		`[{"id":"a","label":"x"},{"id":"a","label":"y"}]`,
	}
	for _, raw := range bad {
		if _, err := DecodeOptions([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
	for _, raw := range []string{`[]`, `[""]`, `"yes"`} {
		if _, err := DecodeSelection([]byte(raw)); err == nil {
			t.Errorf("expected selection error for %s", raw)
		}
	}
	if _, err := EncodeSelection(nil); err == nil {
		t.Error("empty selection must not encode")
	}
}
