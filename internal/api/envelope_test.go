package api

import (
	"errors"
	"testing"

	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/models"
)

func TestDecodeList_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":"1","siteNo":"S01"},{"id":"2","siteNo":"S02"}]`, 2},
		{"named envelope with count", `{"sites":[{"id":"1"}],"count":1}`, 1},
		{"data envelope", `{"data":[{"id":"1"},{"id":"2"},{"id":"3"}],"total":3}`, 3},
		{"items envelope", `{"items":[{"id":"1"}]}`, 1},
		{"data wrapping named", `{"data":{"sites":[{"id":"1"},{"id":"2"}]}}`, 2},
		{"empty array", `[]`, 0},
		{"null", `null`, 0},
		{"empty body", ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[models.Site]([]byte(tt.body), "sites")
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got == nil {
				t.Fatal("result must never be nil")
			}
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDecodeList_UnknownShape(t *testing.T) {
	_, err := decodeList[models.Site]([]byte(`{"message":"ok"}`), "sites")
	if err == nil {
		t.Fatal("expected error for object without a collection")
	}
	if apperr.IsRetryable(err) || apperr.As(err).Code != apperr.CodeInvalidResponse {
		t.Fatalf("undecodable list should be a terminal invalid_response, got %v", err)
	}
	if _, err := decodeList[models.Site]([]byte(`"nope"`), "sites"); err == nil {
		t.Fatal("expected error for scalar")
	}
}

func TestDecodeOne_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `{"id":"7","name":"Acme"}`},
		{"named", `{"client":{"id":"7","name":"Acme"}}`},
		{"data", `{"data":{"id":"7","name":"Acme"},"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeOne[models.Client]([]byte(tt.body), "client")
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.ID != "7" || got.Name != "Acme" {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestDecodeOne_ActivityKeepsEmbeddedSite(t *testing.T) {
	body := `{"id":"a1","action":"new","siteId":"s1","clientId":"c1","startDate":"2024-01-01","site":{"id":"s1","siteNo":"S01"}}`
	got, err := decodeOne[models.Activity]([]byte(body), "activity")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "a1" || got.Site == nil || got.Site.SiteNo != "S01" {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeOne_Empty(t *testing.T) {
	_, err := decodeOne[models.Site](nil, "site")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v", err)
	}
	if apperr.IsRetryable(err) {
		t.Fatal("an empty body should not be retried")
	}
}
