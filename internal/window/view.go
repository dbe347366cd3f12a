package window

import (
	"investtracker/internal/core"
)

// View is a render-ready copy of the window state.
type View struct {
	Title string

	Types      []Option
	AmountText string

	Years  []Option
	Months []Option
	Period string

	Columns []string
	Rows    []RowView

	MonthlySum    string
	FilteredTotal string

	Notice  *Notice
	Confirm *ConfirmView
}

// Option is one entry of a select box.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// RowView is one table row. Index is the only row handle exposed to the page.
type RowView struct {
	Index     int
	Date      string
	Type      string
	Amount    string
	Selected  bool
	Deletable bool
}

// ConfirmView is an open yes/no box.
type ConfirmView struct {
	Question string
	Date     string
	Type     string
	Amount   string
}

// Empty reports whether the table has no rows.
func (v View) Empty() bool {
	return len(v.Rows) == 0
}

// View snapshots the window for rendering.
func (w *Window) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.svc.Now()
	v := View{
		Title:         Title,
		AmountText:    w.formAmount,
		Period:        w.period.String(),
		Columns:       make([]string, 0, int(ColumnAction)+1),
		MonthlySum:    core.FormatAmount(w.monthlySum),
		FilteredTotal: w.filteredTotal.StringFixed(core.AmountPlaces),
	}

	for _, t := range core.Types() {
		v.Types = append(v.Types, Option{Value: t.String(), Label: t.String(), Selected: t == w.formType})
	}
	for y := core.MinYear; y <= now.Year(); y++ {
		p := core.Period{Year: y, Month: 1}
		v.Years = append(v.Years, Option{Value: p.YearText(), Label: p.YearText(), Selected: y == w.period.Year})
	}
	for m := 1; m <= 12; m++ {
		p := core.Period{Year: w.period.Year, Month: m}
		v.Months = append(v.Months, Option{Value: p.MonthText(), Label: p.MonthText(), Selected: m == w.period.Month})
	}
	for c := ColumnDate; c <= ColumnAction; c++ {
		v.Columns = append(v.Columns, c.String())
	}

	v.Rows = make([]RowView, w.table.Len())
	for i := range v.Rows {
		date, _ := w.table.Cell(i, ColumnDate)
		typ, _ := w.table.Cell(i, ColumnType)
		amount, _ := w.table.Cell(i, ColumnAmount)
		v.Rows[i] = RowView{
			Index:     i,
			Date:      date,
			Type:      typ,
			Amount:    amount,
			Selected:  i == w.selected,
			Deletable: i == w.selected,
		}
	}

	if w.notice != nil {
		n := *w.notice
		v.Notice = &n
	}
	if w.pending != nil {
		v.Confirm = &ConfirmView{
			Question: MsgConfirmDelete,
			Date:     w.pending.date,
			Type:     w.pending.typ,
			Amount:   w.pending.amount,
		}
	}
	return v
}
