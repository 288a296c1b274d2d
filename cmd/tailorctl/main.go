// tailorctl submits measurement orders and browses them from a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"tailor-app/internal/client"
	"tailor-app/internal/models"
)

const usage = `usage: tailorctl [-api URL] [-timeout D] <command> [flags]

commands:
  taxonomy   print categories, subcategories and measurement fields
  submit     submit an order (public)
  list       list orders (admin)
  show       print one order with its measurements (admin)
  export     download orders as .xlsx (admin)
  whoami     print the signed-in admin (admin)

Admin commands sign in with -email/-password or TAILOR_ADMIN_EMAIL/TAILOR_ADMIN_PASSWORD,
or reuse a session token from TAILOR_TOKEN.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "tailorctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("tailorctl", flag.ContinueOnError)
	apiURL := global.String("api", envOr("TAILOR_API_URL", "http://localhost:8080"), "order API base URL")
	timeout := global.Duration("timeout", 15*time.Second, "per-request timeout")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	api := client.NewAPIClient(*apiURL).WithHTTPClient(&http.Client{Timeout: *timeout})
	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "taxonomy":
		return runTaxonomy(ctx, api)
	case "submit":
		return runSubmit(ctx, api, rest)
	case "list":
		return runList(ctx, api, rest)
	case "show":
		return runShow(ctx, api, rest)
	case "export":
		return runExport(ctx, api, rest)
	case "whoami":
		return runWhoami(ctx, api, rest)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runTaxonomy(ctx context.Context, api *client.APIClient) error {
	tx, err := api.Taxonomy(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("taxonomy %s\n", tx.Version)
	for _, c := range tx.Categories {
		fmt.Printf("%s (%s)\n", c.Name, c.ID)
		for _, s := range c.Subcategories {
			fmt.Printf("  %s (%s): %s\n", s.Name, s.ID, strings.Join(s.Keys(), ", "))
		}
	}
	return nil
}

// measurementFlags collects repeated -m key=value flags in order.
type measurementFlags [][2]string

func (m *measurementFlags) String() string { return fmt.Sprint(*m) }

func (m *measurementFlags) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("want key=value, got %q", v)
	}
	*m = append(*m, [2]string{strings.TrimSpace(key), value})
	return nil
}

func runSubmit(ctx context.Context, api *client.APIClient, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	shop := fs.String("shop", "", "shop name (required)")
	clientName := fs.String("client", "", "client name")
	number := fs.String("number", "", "client phone number")
	pickup := fs.String("pickup", "", "pickup date, yyyy-MM-dd (required)")
	delivery := fs.String("delivery", "", "delivery date, yyyy-MM-dd (required)")
	category := fs.String("category", "", "category id (required)")
	subcategory := fs.String("subcategory", "", "subcategory id (required)")
	var measurements measurementFlags
	fs.Var(&measurements, "m", "measurement as key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tx, err := api.Taxonomy(ctx)
	if err != nil {
		return err
	}

	form := client.NewIntakeForm(tx, api)
	form.SetShopName(*shop)
	form.SetClientName(*clientName)
	form.SetClientNumber(*number)
	form.SetPickupDate(*pickup)
	form.SetDeliveryDate(*delivery)
	if *category != "" {
		if err := form.SelectCategory(*category); err != nil {
			return err
		}
	}
	if *subcategory != "" {
		if err := form.SelectSubcategory(*subcategory); err != nil {
			return err
		}
	}
	for _, m := range measurements {
		if err := form.SetMeasurement(m[0], m[1]); err != nil {
			return err
		}
	}

	result, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	if result.Order != nil {
		fmt.Println("order id:", result.Order.ID.Hex())
	}
	return nil
}

type adminFlags struct {
	email    *string
	password *string
}

func registerAdminFlags(fs *flag.FlagSet) adminFlags {
	return adminFlags{
		email:    fs.String("email", os.Getenv("TAILOR_ADMIN_EMAIL"), "admin email"),
		password: fs.String("password", os.Getenv("TAILOR_ADMIN_PASSWORD"), "admin password"),
	}
}

func (a adminFlags) signIn(ctx context.Context, api *client.APIClient) error {
	if token := os.Getenv("TAILOR_TOKEN"); token != "" {
		api.SetToken(token)
		return nil
	}
	if *a.email == "" || *a.password == "" {
		return errors.New("admin command needs -email and -password or TAILOR_TOKEN")
	}
	_, err := api.Login(ctx, *a.email, *a.password)
	return err
}

func runList(ctx context.Context, api *client.APIClient, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	admin := registerAdminFlags(fs)
	shop := fs.String("shop", "", "shop name substring")
	category := fs.String("category", "", "category id or all")
	subcategory := fs.String("subcategory", "", "subcategory id or all")
	start := fs.String("start", "", "created on or after, yyyy-MM-dd")
	end := fs.String("end", "", "created on or before, yyyy-MM-dd")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := admin.signIn(ctx, api); err != nil {
		return err
	}

	tx, err := api.Taxonomy(ctx)
	if err != nil {
		return err
	}
	dash := client.NewDashboard(api, tx)
	if err := dash.SetShop(ctx, *shop); err != nil {
		return err
	}
	if err := dash.SetCategory(ctx, *category); err != nil {
		return err
	}
	if err := dash.SetSubcategory(ctx, *subcategory); err != nil {
		return err
	}
	if err := dash.SetDates(ctx, *start, *end); err != nil {
		return err
	}
	for dash.Page() < int64(*page) && dash.HasNext() {
		if err := dash.Next(ctx); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSHOP\tCLIENT\tCATEGORY\tSUBCATEGORY")
	for _, o := range dash.Orders() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID.Hex(), o.CreatedAt.Local().Format("2006-01-02 15:04"), o.ShopName, o.ClientName, o.Category, o.Subcategory)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("page %d of %d (%d orders)\n", dash.Page(), dash.TotalPages(), dash.Total())
	return nil
}

func runShow(ctx context.Context, api *client.APIClient, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	admin := registerAdminFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("show needs an order id")
	}
	if err := admin.signIn(ctx, api); err != nil {
		return err
	}

	order, err := api.GetOrder(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Order\t%s\n", order.ID.Hex())
	fmt.Fprintf(w, "Created\t%s\n", order.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "Shop\t%s\n", order.ShopName)
	fmt.Fprintf(w, "Client\t%s %s\n", order.ClientName, order.ClientNumber)
	fmt.Fprintf(w, "Item\t%s / %s\n", order.Category, order.Subcategory)
	fmt.Fprintf(w, "Pickup\t%s\n", order.PickupDate)
	fmt.Fprintf(w, "Delivery\t%s\n", order.DeliveryDate)

	keys := make([]string, 0, len(order.Measurements))
	for k := range order.Measurements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\t%g\n", k, order.Measurements[k])
	}
	return w.Flush()
}

func runExport(ctx context.Context, api *client.APIClient, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	admin := registerAdminFlags(fs)
	out := fs.String("o", "orders.xlsx", "output file")
	category := fs.String("category", "", "category id or all")
	shop := fs.String("shop", "", "shop name substring")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := admin.signIn(ctx, api); err != nil {
		return err
	}

	filter := models.OrderFilter{Shop: *shop}
	if *category != "all" {
		filter.Category = *category
	}
	data, err := api.ExportOrders(ctx, filter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
	return nil
}

func runWhoami(ctx context.Context, api *client.APIClient, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	admin := registerAdminFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := admin.signIn(ctx, api); err != nil {
		return err
	}

	user, err := api.Session(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
