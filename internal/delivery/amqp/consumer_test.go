package amqp

import (
	"testing"

	"github.com/google/uuid"
)

func TestDecodeDelivery_Valid(t *testing.T) {
	id := uuid.New()
	body := []byte(`{
		"jobId": "` + id.String() + `",
		"request": {
			"targetLanguages": ["fr", "de"],
			"language": "en",
			"fields": [{"texttotranslate": "Hello"}]
		}
	}`)

	msg, err := decodeDelivery(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.JobID != id {
		t.Errorf("expected job ID %s, got %s", id, msg.JobID)
	}
	if len(msg.Request.TargetLanguages) != 2 {
		t.Errorf("expected 2 target languages, got %v", msg.Request.TargetLanguages)
	}
	if msg.Request.Fields[0].Text != "Hello" {
		t.Errorf("expected field text Hello, got %q", msg.Request.Fields[0].Text)
	}
}

func TestDecodeDelivery_ToleratesUnknownFields(t *testing.T) {
	id := uuid.New()
	body := []byte(`{
		"jobId": "` + id.String() + `",
		"someFutureField": 42,
		"request": {
			"targetLanguages": ["fr"],
			"language": "en",
			"fields": [{"texttotranslate": "Hello", "extra": true}]
		}
	}`)

	if _, err := decodeDelivery(body); err != nil {
		t.Fatalf("unknown fields must be ignored: %v", err)
	}
}

func TestDecodeDelivery_Malformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing jobId", `{"request":{"targetLanguages":["fr"],"language":"en","fields":[{"texttotranslate":"x"}]}}`},
		{"missing request", `{"jobId":"` + uuid.NewString() + `"}`},
		{"invalid jobId", `{"jobId":"not-a-uuid","request":{"targetLanguages":["fr"],"language":"en","fields":[{"texttotranslate":"x"}]}}`},
		{"invalid request", `{"jobId":"` + uuid.NewString() + `","request":{"targetLanguages":[],"language":"en","fields":[{"texttotranslate":"x"}]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeDelivery([]byte(tc.body)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}
