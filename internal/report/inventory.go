// Package report renders the printable inventory sheet: one row per item with
// its quantity, dates and a Code 128 rendering of the barcode so a shelf label
// can be rescanned from paper.
package report

import (
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"reagent-inventory-api-server/internal/models"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// InventoryReport builds the PDF.
type InventoryReport struct {
	Title string
}

func NewInventoryReport(title string) *InventoryReport {
	return &InventoryReport{Title: title}
}

// Generate returns the PDF bytes. Items expiring on or before the
// generation date are highlighted.
func (r *InventoryReport) Generate(items []models.InventoryItem, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(r.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r.Title, generatedAt, len(items)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())

	today := generatedAt.Format(models.DateLayout)
	for _, item := range items {
		m.AddRows(itemRow(item, today))
	}

	if len(items) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("No items registered.", props.Text{Size: 9, Align: align.Center, Top: 3, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate inventory report: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(title string, generatedAt time.Time, count int) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("%d items", count), props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generated "+generatedAt.Format("2006-01-02 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Name", 3, align.Left),
		h("Qty", 1, align.Center),
		h("Expiration", 2, align.Center),
		h("Lot", 2, align.Left),
		h("Barcode", 4, align.Center),
	)
}

func itemRow(item models.InventoryItem, today string) core.Row {
	expProps := props.Text{Size: 8, Align: align.Center, Top: 4}
	if item.Expiration != "" && item.Expiration <= today {
		expProps.Style = fontstyle.Bold
		expProps.Color = colorAlert
	}

	return row.New(16).Add(
		col.New(3).Add(text.New(item.DisplayName(), props.Text{Size: 8, Top: 4, Left: 1})),
		col.New(1).Add(text.New(strconv.Itoa(item.Quantity), props.Text{Size: 8, Align: align.Center, Top: 4})),
		col.New(2).Add(text.New(nonEmpty(item.Expiration, "-"), expProps)),
		col.New(2).Add(text.New(nonEmpty(item.LotNumber, "-"), props.Text{Size: 8, Top: 4, Left: 1})),
		col.New(4).Add(
			code.NewBar(item.Barcode, props.Barcode{Percent: 70, Center: true}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
