package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/diewo77/go-hoardings/internal/models"
)

func str(s string) *string { return &s }

func f64(v float64) *float64 { return &v }

func TestViolationsAddKeepsFirst(t *testing.T) {
	v := make(Violations)
	v.Add("name", "required")
	v.Add("name", "too_short")
	if v["name"] != "required" {
		t.Fatalf("got %q", v["name"])
	}
	if v.Empty() {
		t.Fatal("expected non-empty")
	}
}

func TestSite(t *testing.T) {
	tests := []struct {
		name  string
		in    models.SiteInput
		field string
		code  string
	}{
		{"valid", models.SiteInput{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding, Size: "20x10"}, "", ""},
		{"valid plain", models.SiteInput{SiteNo: "s01", Location: "MG Road", Type: models.SiteTypeUnipole}, "", ""},
		{"missing site no", models.SiteInput{Location: "MG Road", Type: models.SiteTypeHoarding}, "siteNo", "required"},
		{"blank site no", models.SiteInput{SiteNo: "  ", Location: "MG Road", Type: models.SiteTypeHoarding}, "siteNo", "required"},
		{"symbols", models.SiteInput{SiteNo: "S_01!", Location: "MG Road", Type: models.SiteTypeHoarding}, "siteNo", "alphanumeric"},
		{"too long site no", models.SiteInput{SiteNo: strings.Repeat("A", 51), Location: "MG Road", Type: models.SiteTypeHoarding}, "siteNo", "too_long"},
		{"short location", models.SiteInput{SiteNo: "S1", Location: "MG", Type: models.SiteTypeHoarding}, "location", "too_short"},
		{"long location", models.SiteInput{SiteNo: "S1", Location: strings.Repeat("x", 201), Type: models.SiteTypeHoarding}, "location", "too_long"},
		{"bad type", models.SiteInput{SiteNo: "S1", Location: "MG Road", Type: "billboard"}, "type", "invalid_choice"},
		{"missing type", models.SiteInput{SiteNo: "S1", Location: "MG Road"}, "type", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Site(tt.in)
			if tt.field == "" {
				if !v.Empty() {
					t.Fatalf("expected no violations, got %v", v)
				}
				return
			}
			if v[tt.field] != tt.code {
				t.Fatalf("%s = %q, want %q (all: %v)", tt.field, v[tt.field], tt.code, v)
			}
		})
	}
}

func TestSiteMultipleFieldErrors(t *testing.T) {
	v := Site(models.SiteInput{})
	for _, f := range []string{"siteNo", "location", "type"} {
		if v[f] == "" {
			t.Errorf("expected violation on %s, got %v", f, v)
		}
	}
}

func TestSiteUpdate(t *testing.T) {
	if v := SiteUpdate(models.SiteUpdate{Location: "MG Road", Type: models.SiteTypeHoarding}); !v.Empty() {
		t.Fatalf("unexpected %v", v)
	}
	if v := SiteUpdate(models.SiteUpdate{Location: "", Type: models.SiteTypeHoarding}); v["location"] != "required" {
		t.Fatalf("unexpected %v", v)
	}
}

func TestClientGST(t *testing.T) {
	v := Client(models.ClientInput{Name: "Acme Ads", GSTNumber: str("29ABCDE1234F1Z5")})
	if !v.Empty() {
		t.Fatalf("expected valid GST, got %v", v)
	}

	v = Client(models.ClientInput{Name: "Acme Ads", GSTNumber: str("29ABCDE1234F1Z")})
	if v["gstNumber"] != "invalid_length" {
		t.Fatalf("expected length error on gstNumber, got %v", v)
	}
	if len(v) != 1 {
		t.Fatalf("expected a single violation, got %v", v)
	}

	v = Client(models.ClientInput{Name: "Acme Ads", GSTNumber: str("29ABCDE1234F1X5")})
	if v["gstNumber"] != "invalid_format" {
		t.Fatalf("expected format error, got %v", v)
	}

	v = Client(models.ClientInput{Name: "Acme Ads", GSTNumber: str("")})
	if !v.Empty() {
		t.Fatalf("blank GST should be ignored, got %v", v)
	}
}

func TestClientNameAndEmail(t *testing.T) {
	tests := []struct {
		name  string
		in    models.ClientInput
		field string
		code  string
	}{
		{"missing name", models.ClientInput{}, "name", "required"},
		{"short name", models.ClientInput{Name: "A"}, "name", "too_short"},
		{"long name", models.ClientInput{Name: strings.Repeat("n", 201)}, "name", "too_long"},
		{"bad email", models.ClientInput{Name: "Acme", Email: str("not-an-email")}, "email", "invalid_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Client(tt.in)
			if v[tt.field] != tt.code {
				t.Fatalf("%s = %q, want %q (all: %v)", tt.field, v[tt.field], tt.code, v)
			}
		})
	}
	if v := Client(models.ClientInput{Name: "Acme", Email: str("ops@acme.in")}); !v.Empty() {
		t.Fatalf("unexpected %v", v)
	}
}

func TestClientUpdate(t *testing.T) {
	if v := ClientUpdate(models.ClientUpdate{GSTNumber: str("29ABCDE1234F1Z")}); v["gstNumber"] != "invalid_length" {
		t.Fatalf("unexpected %v", v)
	}
	if v := ClientUpdate(models.ClientUpdate{}); !v.Empty() {
		t.Fatalf("unexpected %v", v)
	}
}

func validActivity() models.ActivityInput {
	return models.ActivityInput{
		Action:       models.ActionNew,
		SiteID:       "s1",
		ClientID:     "c1",
		StartDate:    models.NewDate(2024, 1, 1),
		RatePerMonth: f64(25000),
	}
}

func TestActivityShiftRequiresPreviousClient(t *testing.T) {
	in := validActivity()
	in.Action = models.ActionShift
	v := Activity(in)
	if v["previousClientId"] != "required" {
		t.Fatalf("expected previousClientId required, got %v", v)
	}
	if len(v) != 1 {
		t.Fatalf("expected only previousClientId, got %v", v)
	}

	in.Action = models.ActionNew
	if v := Activity(in); !v.Empty() {
		t.Fatalf("action=new should pass, got %v", v)
	}

	in.Action = models.ActionShift
	in.PreviousClientID = str("c0")
	if v := Activity(in); !v.Empty() {
		t.Fatalf("shift with previous client should pass, got %v", v)
	}

	in.Action = models.ActionFlexChange
	if v := Activity(in); v["previousClientId"] != "must_be_empty" {
		t.Fatalf("expected must_be_empty, got %v", v)
	}
}

func TestActivityDates(t *testing.T) {
	in := validActivity()
	same := in.StartDate
	in.EndDate = &same
	if v := Activity(in); v["endDate"] != "must_be_after_start" {
		t.Fatalf("end == start should fail, got %v", v)
	}

	later := models.NewDate(2024, 2, 1)
	in.EndDate = &later
	if v := Activity(in); !v.Empty() {
		t.Fatalf("unexpected %v", v)
	}

	purchase := models.NewDate(2024, 1, 15)
	in.DateOfPurchase = &purchase
	if v := Activity(in); v["startDate"] != "before_purchase_date" {
		t.Fatalf("expected before_purchase_date, got %v", v)
	}

	purchase = in.StartDate
	if v := Activity(in); !v.Empty() {
		t.Fatalf("start on purchase date should pass, got %v", v)
	}

	in = validActivity()
	in.StartDate = models.Date{}
	if v := Activity(in); v["startDate"] != "required" {
		t.Fatalf("expected startDate required, got %v", v)
	}
}

func TestActivityRateAndReferences(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*models.ActivityInput)
		field string
		code  string
	}{
		{"negative rate", func(a *models.ActivityInput) { a.RatePerMonth = f64(-1) }, "ratePerMonth", "out_of_range"},
		{"huge rate", func(a *models.ActivityInput) { a.RatePerMonth = f64(10_000_001) }, "ratePerMonth", "out_of_range"},
		{"nan rate", func(a *models.ActivityInput) { a.RatePerMonth = f64(math.NaN()) }, "ratePerMonth", "invalid_format"},
		{"missing site", func(a *models.ActivityInput) { a.SiteID = "" }, "siteId", "required"},
		{"missing client", func(a *models.ActivityInput) { a.ClientID = "" }, "clientId", "required"},
		{"missing action", func(a *models.ActivityInput) { a.Action = "" }, "action", "required"},
		{"bad action", func(a *models.ActivityInput) { a.Action = "renew" }, "action", "invalid_choice"},
		{"negative printing", func(a *models.ActivityInput) { a.PrintingCost = f64(-5) }, "printingCost", "out_of_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validActivity()
			tt.mod(&in)
			v := Activity(in)
			if v[tt.field] != tt.code {
				t.Fatalf("%s = %q, want %q (all: %v)", tt.field, v[tt.field], tt.code, v)
			}
		})
	}

	in := validActivity()
	in.RatePerMonth = f64(models.MaxRatePerMonth)
	if v := Activity(in); !v.Empty() {
		t.Fatalf("max rate should pass, got %v", v)
	}
}
