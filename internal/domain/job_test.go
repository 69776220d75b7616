package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidate_WireFieldNames(t *testing.T) {
	payload := []byte(`{
		"targetLanguages": ["fr", "de"],
		"language": "en",
		"fields": [
			{"texttotranslate": "Hello", "metadata": {"id": 7}}
		],
		"UserRequestedTranslation": "user-1",
		"itemId": "item-9",
		"itemPath": "/catalog/item-9"
	}`)

	var req TranslateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if req.Fields[0].Text != "Hello" {
		t.Errorf("expected texttotranslate mapped, got %q", req.Fields[0].Text)
	}
	if req.RequestedBy != "user-1" {
		t.Errorf("expected UserRequestedTranslation mapped, got %q", req.RequestedBy)
	}
	if string(req.Fields[0].Metadata) != `{"id": 7}` {
		t.Errorf("expected metadata kept raw, got %s", req.Fields[0].Metadata)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *TranslateRequest {
		return &TranslateRequest{
			TargetLanguages: []string{"fr"},
			Language:        "en",
			Fields:          []Field{{Text: "Hello"}},
		}
	}

	cases := []struct {
		name   string
		mutate func(*TranslateRequest)
		want   error
	}{
		{"nil target languages", func(r *TranslateRequest) { r.TargetLanguages = nil }, ErrNoTargetLanguages},
		{"blank target language", func(r *TranslateRequest) { r.TargetLanguages = []string{""} }, ErrNoTargetLanguages},
		{"missing language", func(r *TranslateRequest) { r.Language = "" }, ErrMissingSourceLanguage},
		{"nil fields", func(r *TranslateRequest) { r.Fields = nil }, ErrNoFields},
		{"blank field text", func(r *TranslateRequest) { r.Fields = []Field{{Text: ""}} }, ErrEmptyFieldText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base()
			tc.mutate(req)
			if err := req.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidate_DeduplicatesPreservingOrder(t *testing.T) {
	req := &TranslateRequest{
		TargetLanguages: []string{"de", "fr", "de", "es", "fr"},
		Language:        "en",
		Fields:          []Field{{Text: "Hello"}},
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"de", "fr", "es"}
	if len(req.TargetLanguages) != len(want) {
		t.Fatalf("expected %v, got %v", want, req.TargetLanguages)
	}
	for i := range want {
		if req.TargetLanguages[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], req.TargetLanguages[i])
		}
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	if StatusPending.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}
	if !StatusCompleted.IsTerminal() {
		t.Error("COMPLETED must be terminal")
	}
	if !StatusFailed.IsTerminal() {
		t.Error("FAILED must be terminal")
	}
}
