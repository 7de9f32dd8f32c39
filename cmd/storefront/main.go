package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/deshimart/storefront-go/internal/di"
	"github.com/deshimart/storefront-go/internal/domain"
	"github.com/deshimart/storefront-go/internal/platform/config"
	"github.com/deshimart/storefront-go/internal/platform/observability"
	"github.com/deshimart/storefront-go/internal/platform/requestctx"
	"github.com/deshimart/storefront-go/internal/services"
)

const usage = `usage: storefront <command> [flags]

commands:
  show                      print the current cart and totals
  add -variant <id> [-qty n] [-as-guest]
                            add a variant to the cart
  qty -line <id> -qty <n>   change a line's quantity
  remove -line <id>         remove a line
  clear                     empty the cart and start a new one
  checkout -method <m> [-name|-email|-phone|-address|-region|-notes]
                            submit the cart as an order
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	container, err := di.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to assemble dependencies", zap.Error(err))
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = requestctx.WithLogger(ctx, logger)

	if err := run(ctx, container, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *di.Container, command string, args []string) error {
	switch command {
	case "show":
		return showCart(ctx, c)
	case "add":
		return addItem(ctx, c, args)
	case "qty":
		return updateQuantity(ctx, c, args)
	case "remove":
		return removeItem(ctx, c, args)
	case "clear":
		return clearCart(ctx, c)
	case "checkout":
		return checkout(ctx, c, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func showCart(ctx context.Context, c *di.Container) error {
	cart, err := c.Cart.Initialize(ctx)
	if err != nil {
		return err
	}
	printCart(cart, c.Cart.Totals(domain.RegionInsideDhaka))
	return nil
}

func addItem(ctx context.Context, c *di.Container, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	variant := fs.Int64("variant", 0, "variant id to add")
	qty := fs.Int("qty", 1, "quantity")
	asGuest := fs.Bool("as-guest", false, "continue as guest when prompted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *variant <= 0 {
		return errors.New("add: -variant is required")
	}

	product := domain.Product{VariantID: *variant}
	err := c.Cart.AddItem(ctx, product, *qty, 0)
	if errors.Is(err, services.ErrGuestDecisionRequired) {
		if !*asGuest {
			return errors.New("sign in first, or re-run with -as-guest to continue without an account")
		}
		err = c.Cart.ContinueAsGuest(ctx)
	}
	if err != nil {
		return err
	}
	printCart(c.Cart.Cart(), c.Cart.Totals(domain.RegionInsideDhaka))
	return nil
}

func updateQuantity(ctx context.Context, c *di.Container, args []string) error {
	fs := flag.NewFlagSet("qty", flag.ExitOnError)
	line := fs.Int64("line", 0, "cart line id")
	qty := fs.Int("qty", 0, "new quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *line <= 0 {
		return errors.New("qty: -line is required")
	}
	if err := c.Cart.UpdateQuantity(ctx, *line, *qty); err != nil {
		if errors.Is(err, services.ErrQuantityTooLow) {
			return errors.New("quantity must be at least 1; use remove to delete a line")
		}
		return err
	}
	printCart(c.Cart.Cart(), c.Cart.Totals(domain.RegionInsideDhaka))
	return nil
}

func removeItem(ctx context.Context, c *di.Container, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	line := fs.Int64("line", 0, "cart line id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *line <= 0 {
		return errors.New("remove: -line is required")
	}
	if err := c.Cart.RemoveItem(ctx, *line); err != nil {
		return err
	}
	printCart(c.Cart.Cart(), c.Cart.Totals(domain.RegionInsideDhaka))
	return nil
}

func clearCart(ctx context.Context, c *di.Container) error {
	if err := c.Cart.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("cart cleared; new cart %s\n", c.Cart.Cart().ID)
	return nil
}

func checkout(ctx context.Context, c *di.Container, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	method := fs.String("method", "cod", "payment method")
	name := fs.String("name", "", "recipient name (guest checkout)")
	email := fs.String("email", "", "contact email (guest checkout)")
	phone := fs.String("phone", "", "contact phone (guest checkout)")
	addressText := fs.String("address", "", "delivery address")
	region := fs.String("region", "inside_dhaka", "shipping region: inside_dhaka or outside_dhaka")
	notes := fs.String("notes", "", "delivery notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := c.Cart.Initialize(ctx); err != nil {
		return err
	}

	address := domain.ShippingAddress{
		Name:    *name,
		Email:   *email,
		Phone:   *phone,
		Address: *addressText,
		Region:  domain.ParseShippingRegion(*region),
	}
	result, err := c.Checkout.Checkout(ctx, address, *method, *notes)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case services.OutcomeRedirect:
		fmt.Printf("order %s pending payment; complete it at:\n%s\n", result.OrderID, result.PaymentURL)
	case services.OutcomeOrderConfirmed:
		fmt.Printf("order %s confirmed; a fresh cart is ready\n", result.OrderID)
	default:
		fmt.Printf("checkout failed: %s\n", result.Message)
	}
	return nil
}

func printCart(cart domain.Cart, totals domain.Totals) {
	if cart.IsEmpty() {
		fmt.Printf("cart %s is empty\n", cart.ID)
		return
	}
	fmt.Printf("cart %s (%d items)\n", cart.ID, totals.ItemCount)
	for _, line := range cart.Items {
		label := line.Variant.Attributes.Label()
		if label != "" {
			label = " [" + label + "]"
		}
		fmt.Printf("  line %d: variant %d%s x%d = %s\n",
			line.ID, line.Variant.ID, label, line.Quantity, line.LineTotal().StringFixed(2))
	}
	fmt.Printf("  subtotal  %s\n", totals.Subtotal.StringFixed(2))
	if totals.Discount.IsPositive() {
		fmt.Printf("  discount -%s\n", totals.Discount.StringFixed(2))
	}
	fmt.Printf("  delivery  %s\n", totals.DeliveryCharge.StringFixed(2))
	fmt.Printf("  total     %s\n", totals.Total.StringFixed(2))
}
