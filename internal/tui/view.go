package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/dukerupert/mealweek/internal/drag"
	"github.com/dukerupert/mealweek/internal/model"
)

func (m Model) View() string {
	var b strings.Builder

	title := "Week of " + m.scope.Week
	if m.scope.GroupID != 0 {
		title += fmt.Sprintf(" · group %d", m.scope.GroupID)
	}
	if m.loading {
		title += " …"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.plan == nil {
		b.WriteString(emptyStyle.Render("Loading…"))
		b.WriteString("\n")
	} else {
		dirty := make(map[model.Day]bool, len(m.plan.Dirty))
		for _, d := range m.plan.Dirty {
			dirty[d] = true
		}
		for _, day := range model.Days {
			b.WriteString(m.renderDay(day, dirty[day]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.inputMode != inputNone:
		b.WriteString(m.input.View())
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	case m.info != "":
		b.WriteString(infoStyle.Render(m.info))
	}
	b.WriteString("\n")

	bindings := m.keys.short()
	if m.showHelp {
		bindings = m.keys.full()
	}
	b.WriteString(renderHelp(bindings, m.width))
	return b.String()
}

func (m Model) renderDay(day model.Day, dirty bool) string {
	cell := m.board.meals[day]

	marker := "  "
	if dirty {
		marker = "* "
	}
	label := dayStyle.Render(marker + dayName(day))

	var dish string
	switch {
	case cell.Dish == nil:
		dish = emptyStyle.Render("nothing planned")
	case cell.Unavailable:
		dish = unavailableStyle.Render(cell.Dish.Name) + badgeStyle.Render(" (no longer available)")
	default:
		dish = dishStyle.Render(cell.Dish.Name)
	}
	if cell.IsLeftover {
		dish += badgeStyle.Render(" leftovers")
		if cell.LeftoverOf != "" {
			dish += badgeStyle.Render(" of " + cell.LeftoverOf)
		}
	}

	line := label + " " + dish
	switch {
	case m.drag.State() == drag.Picked && m.drag.Source() == day:
		line = pickedStyle.Render("↕" + label + " " + cell.Dish.Name)
	case m.drag.Focus() == day:
		line = cursorStyle.Render(">") + line
	default:
		line = " " + line
	}

	if cell.Notes != "" {
		line += "\n" + noteStyle.Render(cell.Notes)
	}
	return line
}

func dayName(day model.Day) string {
	s := string(day)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func renderHelp(bindings []key.Binding, width int) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	style := footerStyle
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(parts, "  "))
}
