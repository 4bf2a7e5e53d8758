package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/client"
	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/session"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"signup":    cmdSignup,
	"login":     cmdLogin,
	"logout":    cmdLogout,
	"whoami":    cmdWhoami,
	"profile":   cmdProfile,
	"cafes":     cmdCafes,
	"menu":      cmdMenu,
	"recommend": cmdRecommend,
	"add":       cmdAdd,
	"remove":    cmdRemove,
	"qty":       cmdQty,
	"cart":      cmdCart,
	"clear":     cmdClear,
	"checkout":  cmdCheckout,
	"orders":    cmdOrders,
	"report":    cmdReport,
	"match":     cmdMatch,
}

const usageText = `usage: cafe [-api URL] [-state FILE] [-v] <command> [flags]

account:
  signup    -name -email -password -confirm [-student-id] [-phone]
  login     -email -password
  logout
  whoami
  profile   [-email] [-phone] [-address] [-new-password -confirm]

cafe:
  cafes
  menu      -cafe ID
  recommend
  add       -cafe ID -item ID [-qty N]
  remove    -item ID
  qty       -item ID -n N
  cart
  clear
  checkout  -address TEXT -contact PHONE [-payment cash|jazzcash] [-tid ID]
  orders

lost and found:
  report    -kind lost|found -name -description -location [-date YYYY-MM-DD] [-phone] [-email] [-image URL]
  match     -kind lost|found -name TEXT
`

func usage(w io.Writer) { fmt.Fprint(w, usageText) }

func newFlags(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// report prints err, listing field messages for validation failures.
func (a *app) report(err error) {
	var te *client.TransportError
	switch {
	case errors.Is(err, client.ErrInvalidForm):
		fmt.Fprintln(a.errOut, err)
		printFields(a.errOut, a.fields.Map())
	case errors.As(err, &te) && len(te.Fields) > 0:
		fmt.Fprintln(a.errOut, te.Message)
		printFields(a.errOut, te.Fields)
	case errors.Is(err, session.ErrUnauthenticated):
		fmt.Fprintln(a.errOut, "not signed in; run: cafe login -email ... -password ...")
	default:
		fmt.Fprintln(a.errOut, "error:", err)
	}
}

func printFields(w io.Writer, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, fields[k])
	}
}

func cmdSignup(ctx context.Context, a *app, args []string) error {
	var f validation.SignupForm
	fs := newFlags("signup", a)
	fs.StringVar(&f.Name, "name", "", "full name")
	fs.StringVar(&f.Email, "email", "", "email address")
	fs.StringVar(&f.StudentID, "student-id", "", "registration number, e.g. FA22-BSE-014")
	fs.StringVar(&f.Password, "password", "", "password")
	fs.StringVar(&f.ConfirmPassword, "confirm", "", "password again")
	fs.StringVar(&f.Phone, "phone", "", "phone, e.g. 923001234567")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.shop.Signup(ctx, f); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Sign in with: cafe login -email %s\n", f.Email)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	var f validation.LoginForm
	fs := newFlags("login", a)
	fs.StringVar(&f.Email, "email", "", "email address")
	fs.StringVar(&f.Password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := a.shop.Login(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", s.Name, s.Role)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.shop.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	s, err := a.shop.Session.Require(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> role=%s id=%d\n", s.Name, s.Email, s.Role, s.ID)
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	var f validation.ProfileForm
	fs := newFlags("profile", a)
	fs.StringVar(&f.Email, "email", "", "new email")
	fs.StringVar(&f.Phone, "phone", "", "new phone")
	fs.StringVar(&f.Address, "address", "", "delivery address")
	fs.StringVar(&f.NewPassword, "new-password", "", "new password")
	fs.StringVar(&f.ConfirmPassword, "confirm", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NFlag() > 0 {
		s, err := a.shop.UpdateProfile(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Profile updated: %s <%s> %s\n", s.Name, s.Email, s.Phone)
		return nil
	}

	s, err := a.shop.Session.Require(ctx)
	if err != nil {
		return err
	}
	u, res := a.shop.API.Profile(ctx, s.Token)
	if !res.Success {
		return res.Err()
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\nEmail\t%s\nStudent ID\t%s\nPhone\t%s\nAddress\t%s\nRole\t%s\n",
		u.Name, u.Email, u.StudentID, u.Phone, u.Address, u.Role)
	return tw.Flush()
}

func cmdCafes(ctx context.Context, a *app, _ []string) error {
	cafes, res := a.shop.API.Cafes(ctx)
	if !res.Success {
		return res.Err()
	}
	if len(cafes) == 0 {
		fmt.Fprintln(a.out, "No cafes available")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION")
	for _, c := range cafes {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Location)
	}
	return tw.Flush()
}

func cmdMenu(ctx context.Context, a *app, args []string) error {
	fs := newFlags("menu", a)
	cafeID := fs.Uint64("cafe", 0, "cafe id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, res := a.shop.API.MenuItems(ctx, *cafeID)
	if !res.Success {
		return res.Err()
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items available")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, m := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\tRs. %s\n", m.ID, m.Name, m.Category, m.Price)
	}
	return tw.Flush()
}

func cmdRecommend(ctx context.Context, a *app, _ []string) error {
	recs, err := a.shop.Recommendations(ctx)
	if errors.Is(err, client.ErrNoData) {
		fmt.Fprintln(a.out, "No recommendations available")
		return nil
	}
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCAFE\tPRICE\tORDERED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\tRs. %s\t%d\n", r.ID, r.Name, r.CafeName, r.Price, r.OrderCount)
	}
	return tw.Flush()
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add", a)
	cafeID := fs.Uint64("cafe", 0, "cafe id")
	itemID := fs.Uint64("item", 0, "menu item id")
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, res := a.shop.API.MenuItems(ctx, *cafeID)
	if !res.Success {
		return res.Err()
	}
	for _, m := range items {
		if m.ID == *itemID {
			_, err := a.shop.AddToCart(ctx, m, *qty)
			return err
		}
	}
	return fmt.Errorf("item %d is not on the menu of cafe %d", *itemID, *cafeID)
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("remove", a)
	id := fs.String("item", "", "menu item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := a.shop.Cart.RemoveItem(ctx, *id)
	return err
}

func cmdQty(ctx context.Context, a *app, args []string) error {
	fs := newFlags("qty", a)
	id := fs.String("item", "", "menu item id")
	n := fs.Int("n", 1, "new quantity; 0 removes the item")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := a.shop.Cart.UpdateQuantity(ctx, *id, *n)
	return err
}

func cmdCart(ctx context.Context, a *app, _ []string) error {
	v, err := a.shop.Cart.View(ctx)
	if err != nil {
		return err
	}
	return cart.TableRenderer{Out: a.out, ShowTable: true}.Render(v)
}

func cmdClear(ctx context.Context, a *app, _ []string) error {
	return a.shop.Cart.Clear(ctx)
}

func cmdCheckout(ctx context.Context, a *app, args []string) error {
	var f validation.CheckoutForm
	fs := newFlags("checkout", a)
	fs.StringVar(&f.DeliveryAddress, "address", "", "delivery address")
	fs.StringVar(&f.ContactNumber, "contact", "", "contact number")
	fs.StringVar(&f.PaymentMethod, "payment", validation.PaymentCash, "cash or jazzcash")
	fs.StringVar(&f.JazzCashTID, "tid", "", "JazzCash transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	o, err := a.shop.Checkout(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order #%d placed at %s: Rs. %s (%s)\n", o.ID, o.CafeName, o.TotalAmount, o.Status)
	return nil
}

func cmdOrders(ctx context.Context, a *app, _ []string) error {
	s, err := a.shop.Session.Require(ctx, session.RoleUser)
	if err != nil {
		return err
	}
	orders, res := a.shop.API.Orders(ctx, s.Token)
	if !res.Success {
		return res.Err()
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAFE\tSTATUS\tITEMS\tTOTAL\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\tRs. %s\t%s\n",
			o.ID, o.CafeName, o.Status, len(o.Items), o.TotalAmount, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func kindFlag(fs *flag.FlagSet) *string {
	return fs.String("kind", model.KindLost, "lost or found")
}

func checkKind(kind string) error {
	if kind != model.KindLost && kind != model.KindFound {
		return fmt.Errorf("kind must be %s or %s", model.KindLost, model.KindFound)
	}
	return nil
}

func cmdReport(ctx context.Context, a *app, args []string) error {
	var req client.ReportRequest
	fs := newFlags("report", a)
	kind := kindFlag(fs)
	fs.StringVar(&req.Name, "name", "", "item name")
	fs.StringVar(&req.Description, "description", "", "description")
	fs.StringVar(&req.Location, "location", "", "where it was lost or found")
	fs.StringVar(&req.ReporterPhone, "phone", "", "contact phone")
	fs.StringVar(&req.ReporterEmail, "email", "", "contact email")
	fs.StringVar(&req.Date, "date", "", "date, YYYY-MM-DD")
	fs.StringVar(&req.ImageURL, "image", "", "image URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkKind(*kind); err != nil {
		return err
	}
	rep, err := a.board.Report(ctx, *kind, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reported %s item #%d: %s\n", rep.Kind, rep.ID, rep.Name)

	matches, err := a.board.PotentialMatches(ctx, *kind, req.Name)
	if err != nil {
		a.log.Debug("match lookup failed", zap.Error(err))
		return nil
	}
	printMatches(a.out, matches)
	return nil
}

func cmdMatch(ctx context.Context, a *app, args []string) error {
	fs := newFlags("match", a)
	kind := kindFlag(fs)
	name := fs.String("name", "", "item name, at least "+strconv.Itoa(client.MinMatchQuery)+" characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkKind(*kind); err != nil {
		return err
	}
	matches, err := a.board.PotentialMatches(ctx, *kind, *name)
	if errors.Is(err, client.ErrNoData) {
		fmt.Fprintln(a.out, "No data available")
		return nil
	}
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintln(a.out, "No potential matches")
		return nil
	}
	printMatches(a.out, matches)
	return nil
}

func printMatches(w io.Writer, items []model.ItemReport) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, "Potential matches:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Location, it.Date.Format("2006-01-02"), it.ReporterName)
	}
	_ = tw.Flush()
}
