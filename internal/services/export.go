package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/diewo77/go-hoardings/internal/derive"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
)

const activitySheet = "Activities"

var activityColumns = []string{
	"Site No", "Location", "Client", "Action", "Previous Client",
	"Date of Purchase", "Start Date", "End Date", "Months",
	"Rate / Month", "Revenue", "Printing Cost", "Mounting Cost", "Notes",
}

// Exporter renders activity lists as spreadsheets.
type Exporter struct {
	inv *Inventory
	now func() time.Time
}

func NewExporter(inv *Inventory) *Exporter {
	return &Exporter{inv: inv, now: time.Now}
}

// Activities exports every activity matching c (all pages). Site and client
// names missing from the activity payload are resolved from the cached lists.
func (e *Exporter) Activities(ctx context.Context, c filters.Criteria) (*excelize.File, error) {
	acts, err := e.inv.Activities.List(ctx)
	if err != nil {
		return nil, err
	}
	sites, err := e.inv.Sites.List(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := e.inv.Clients.List(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()
	c.Page, c.PageSize = 1, 0
	rows := filters.ActivityView(acts, c, now).Items
	return ActivitySheet(resolveRefs(rows, sites, clients), now)
}

func resolveRefs(acts []models.Activity, sites []models.Site, clients []models.Client) []models.Activity {
	siteByID := make(map[string]models.Site, len(sites))
	for _, s := range sites {
		siteByID[s.ID] = s
	}
	clientByID := make(map[string]models.Client, len(clients))
	for _, c := range clients {
		clientByID[c.ID] = c
	}
	out := make([]models.Activity, len(acts))
	for i, a := range acts {
		if a.Site == nil {
			if s, ok := siteByID[a.SiteID]; ok {
				a.Site = &models.SiteRef{ID: s.ID, SiteNo: s.SiteNo, Location: s.Location, Type: s.Type}
			}
		}
		if a.Client == nil {
			if c, ok := clientByID[a.ClientID]; ok {
				a.Client = &models.ClientRef{ID: c.ID, Name: c.Name}
			}
		}
		if a.PreviousClient == nil && a.PreviousClientID != nil {
			if c, ok := clientByID[*a.PreviousClientID]; ok {
				a.PreviousClient = &models.ClientRef{ID: c.ID, Name: c.Name}
			}
		}
		out[i] = a
	}
	return out
}

// ActivitySheet writes acts to a single-sheet workbook: a header row, one row
// per activity and a revenue total.
func ActivitySheet(acts []models.Activity, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", activitySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	for i, h := range activityColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(activitySheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(activityColumns), 1)
	f.SetCellStyle(activitySheet, "A1", last, headerStyle)
	lastCol, _ := excelize.ColumnNumberToName(len(activityColumns))
	f.SetColWidth(activitySheet, "A", lastCol, 18)

	var total float64
	for i, a := range acts {
		revenue := derive.ActivityRevenue(a, now)
		total += revenue
		row := []any{
			siteNo(a), siteLocation(a), clientName(a.Client, a.ClientID), string(a.Action),
			optionalClient(a.PreviousClient, a.PreviousClientID),
			optionalDate(a.DateOfPurchase), a.StartDate.String(), optionalDate(a.EndDate),
			derive.Months(a, now), derive.Rate(a), revenue,
			optionalFloat(a.PrintingCost), optionalFloat(a.MountingCost), optionalString(a.Notes),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(activitySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	totalRow := len(acts) + 3
	label, _ := excelize.CoordinatesToCellName(10, totalRow)
	value, _ := excelize.CoordinatesToCellName(11, totalRow)
	f.SetCellValue(activitySheet, label, "Total")
	f.SetCellValue(activitySheet, value, total)
	return f, nil
}

func siteNo(a models.Activity) string {
	if a.Site != nil {
		return a.Site.SiteNo
	}
	return a.SiteID
}

func siteLocation(a models.Activity) string {
	if a.Site != nil {
		return a.Site.Location
	}
	return ""
}

func clientName(ref *models.ClientRef, id string) string {
	if ref != nil && ref.Name != "" {
		return ref.Name
	}
	return id
}

func optionalClient(ref *models.ClientRef, id *string) string {
	if id == nil {
		return ""
	}
	return clientName(ref, *id)
}

func optionalDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func optionalFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
