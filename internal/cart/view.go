package cart

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// EmptyMessage is rendered in place of the table when the cart has no rows.
const EmptyMessage = "Your cart is empty"

// Row is a line item with its subtotal precomputed for display.
type Row struct {
	LineItem
	Subtotal Money `json:"subtotal"`
}

// View is the render-ready projection handed to a Refresher.
type View struct {
	Rows  []Row `json:"rows"`
	Count int   `json:"count"`
	Total Money `json:"total"`
	Empty bool  `json:"empty"`
}

// Refresher receives a fresh View after every cart mutation.
type Refresher interface {
	Refresh(View)
}

// RefresherFunc adapts a plain function to Refresher.
type RefresherFunc func(View)

func (f RefresherFunc) Refresh(v View) { f(v) }

func project(items []LineItem) View {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Row{LineItem: it, Subtotal: it.Subtotal()})
	}
	return View{
		Rows:  rows,
		Count: count(items),
		Total: total(items),
		Empty: len(items) == 0,
	}
}

// TableRenderer is the text presentation adapter used by the CLI.  The
// count badge is always written; the table only when ShowTable is set, which
// mirrors a page that has the cart table mounted.
type TableRenderer struct {
	Out       io.Writer
	ShowTable bool
	Currency  string
}

func (r TableRenderer) Refresh(v View) {
	_ = r.Render(v)
}

// Render writes the badge and, if enabled, the table.
func (r TableRenderer) Render(v View) error {
	if _, err := fmt.Fprintf(r.Out, "cart: %d item(s)\n", v.Count); err != nil {
		return err
	}
	if !r.ShowTable {
		return nil
	}
	if v.Empty {
		_, err := fmt.Fprintln(r.Out, EmptyMessage)
		return err
	}
	cur := r.Currency
	if cur == "" {
		cur = "Rs."
	}
	tw := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tQTY\tPRICE\tSUBTOTAL")
	for _, row := range v.Rows {
		price, _ := row.Price.Money()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s %s\t%s %s\n",
			row.ID, row.Name, row.Quantity, cur, price, cur, row.Subtotal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.Out, "Total: %s %s\n", cur, v.Total)
	return err
}
