package queue

import (
	"testing"

	"github.com/ab7289/dining-concierge/internal/model"
)

func sampleRequest() *model.ReservationRequest {
	return &model.ReservationRequest{
		Location:  "New York",
		Cuisine:   "Italian",
		Date:      "2026-09-02",
		Time:      "19:00",
		PartySize: 4,
		Phone:     "5551234567",
		Email:     "diner@example.com",
		GroupID:   "req-42",
		DedupeID:  "tok-1",
	}
}

func TestAttributes_RoundTrip(t *testing.T) {
	req := sampleRequest()
	msg := &Message{
		ID:         1,
		GroupID:    req.GroupID,
		DedupeID:   req.DedupeID,
		Body:       Body(req),
		Attributes: EncodeAttributes(req),
	}

	got, err := DecodeRequest(msg)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if *got != *req {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, req)
	}
}

func TestEncodeAttributes_TypedPairs(t *testing.T) {
	attrs := EncodeAttributes(sampleRequest())
	for _, name := range []string{"location", "cuisine", "date", "time", "phone", "email"} {
		a, ok := attrs[name]
		if !ok {
			t.Fatalf("missing attribute %q", name)
		}
		if a.DataType != DataTypeString {
			t.Fatalf("attribute %q type = %q, want String", name, a.DataType)
		}
	}
	if attrs["count"].DataType != DataTypeNumber {
		t.Fatalf("count type = %q, want Number", attrs["count"].DataType)
	}
	if attrs["count"].StringValue != "4" {
		t.Fatalf("count value = %q", attrs["count"].StringValue)
	}
}

func TestDecodeRequest_BadCount(t *testing.T) {
	msg := &Message{
		ID:       2,
		GroupID:  "g",
		DedupeID: "d",
		Attributes: map[string]Attribute{
			"count": {DataType: DataTypeNumber, StringValue: "many"},
		},
	}
	if _, err := DecodeRequest(msg); err == nil {
		t.Fatal("expected error for non-numeric count")
	}
}

func TestBody_FreeTextSummary(t *testing.T) {
	if got := Body(sampleRequest()); got != "Italian in New York" {
		t.Fatalf("body = %q", got)
	}
}
