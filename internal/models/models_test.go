package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSite_Occupied(t *testing.T) {
	empty := ""
	id := "c1"
	tests := []struct {
		name string
		site Site
		want bool
	}{
		{"nil client", Site{}, false},
		{"empty client", Site{ActiveClientID: &empty}, false},
		{"occupied", Site{ActiveClientID: &id}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.site.Occupied(); got != tt.want {
				t.Errorf("Occupied() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSite_ApplyKeepsSiteNo(t *testing.T) {
	s := Site{ID: "1", SiteNo: "S01", Location: "MG Road", Type: SiteTypeHoarding, Size: "20x10"}
	got := s.Apply(SiteUpdate{Location: "Brigade Road", Type: SiteTypeUnipole, Size: "10x10"})
	if got.SiteNo != "S01" || got.ID != "1" {
		t.Fatalf("identifiers changed: %+v", got)
	}
	if got.Location != "Brigade Road" || got.Type != SiteTypeUnipole {
		t.Fatalf("update not applied: %+v", got)
	}
	if s.Location != "MG Road" {
		t.Fatalf("original mutated")
	}
}

func TestClient_ApplyKeepsName(t *testing.T) {
	gst := "29ABCDE1234F1Z5"
	c := Client{ID: "7", Name: "Acme"}
	got := c.Apply(ClientUpdate{GSTNumber: &gst})
	if got.Name != "Acme" {
		t.Fatalf("name changed: %q", got.Name)
	}
	if got.GSTNumber == nil || *got.GSTNumber != gst {
		t.Fatalf("gst not applied")
	}
}

func TestActivity_ApplyDropsTotals(t *testing.T) {
	months := 3
	amount := 30000.0
	a := Activity{ID: "a1", SiteID: "s1", ClientID: "c1", TotalMonths: &months, TotalAmount: &amount}
	got := a.Apply(ActivityUpdate{Action: ActionFlexChange, StartDate: NewDate(2024, 1, 1)})
	if got.SiteID != "s1" || got.ClientID != "c1" {
		t.Fatalf("references changed: %+v", got)
	}
	if got.TotalMonths != nil || got.TotalAmount != nil {
		t.Fatalf("expected derived totals cleared")
	}
	if got.Input().Action != ActionFlexChange {
		t.Fatalf("Input() lost action")
	}
}

func TestDate_JSON(t *testing.T) {
	var a struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
		Other *Date `json:"other"`
	}
	body := `{"start":"2024-03-01","end":"2024-06-30T10:00:00Z","other":null}`
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.Start.Equal(NewDate(2024, time.March, 1)) {
		t.Errorf("start = %s", a.Start)
	}
	if a.End == nil || a.End.String() != "2024-06-30" {
		t.Errorf("end = %v", a.End)
	}
	if a.Other != nil {
		t.Errorf("other should be nil")
	}
	out, err := json.Marshal(a.Start)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-03-01"` {
		t.Errorf("marshal = %s", out)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := ParseDate("01/03/2024"); err == nil {
		t.Fatal("expected error")
	}
}
