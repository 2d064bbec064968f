package serialization_test

import (
	"errors"
	"testing"

	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
	"github.com/next-trace/scg-rabbit-bus/serialization"
)

type payload struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
}

func TestJSON_RoundTrip(t *testing.T) {
	s := serialization.NewJSON()

	if s.ContentType() != "application/json" {
		t.Fatalf("unexpected content type: %s", s.ContentType())
	}

	b, err := s.Marshal(payload{ID: "a", Size: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got payload
	if err := s.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.ID != "a" || got.Size != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestJSON_Errors(t *testing.T) {
	s := serialization.NewJSON()

	if _, err := s.Marshal(func() {}); !errors.Is(err, cerr.ErrSerializationFailed) {
		t.Fatalf("want ErrSerializationFailed, got %v", err)
	}

	var got payload
	if err := s.Unmarshal([]byte("{"), &got); !errors.Is(err, cerr.ErrSerializationFailed) {
		t.Fatalf("want ErrSerializationFailed, got %v", err)
	}
}
