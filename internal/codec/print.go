package codec

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/week"
)

//go:embed print.html
var printHTML string

var printTmpl = template.Must(template.New("print").Parse(printHTML))

type printRow struct {
	Label       string
	Date        string
	Dish        string
	Leftover    string
	Notes       string
	Unavailable bool
	Today       bool
}

// ExportPrintable writes an HTML page listing the week in day order. The row
// for now's date is marked when it falls inside the week.
func ExportPrintable(w io.Writer, scope model.WeekScope, plan *week.Plan, now time.Time) error {
	today := model.FormatDate(now)
	rows := make([]printRow, 0, 7)
	for i, day := range model.Days {
		date := model.FormatDate(scope.WeekStart.AddDate(0, 0, i))
		c := plan.Cell(day)
		row := printRow{
			Label: strings.ToUpper(string(day[:1])) + string(day[1:]),
			Date:  date,
			Notes: c.Notes,
			Today: date == today,
		}
		if c.Dish != nil {
			row.Dish = c.Dish.Name
			row.Leftover = c.LeftoverOf
			row.Unavailable = c.Unavailable
		}
		rows = append(rows, row)
	}

	data := map[string]any{
		"Title": "Meal plan for the week of " + scope.WeekStartDate(),
		"Rows":  rows,
	}
	if err := printTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render printable plan: %w", err)
	}
	return nil
}
