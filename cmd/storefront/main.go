package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sokoide/workshop/storefront/pkg/config"
	"github.com/sokoide/workshop/storefront/pkg/domain"
	"github.com/sokoide/workshop/storefront/pkg/infra/rabbitmq"
	"github.com/sokoide/workshop/storefront/pkg/logger"
	"github.com/sokoide/workshop/storefront/pkg/usecase"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdin, os.Stdout))
}

// realMain runs one CLI invocation and returns the process exit code.
func realMain(args []string, in io.Reader, out io.Writer) int {
	// 1. Configuration and logging
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput, Component: "storefront"})
	defer log.Close()

	// 2. Command parsing
	if len(args) < 1 {
		printUsage(out)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Dependency injection
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		return 1
	}
	defer a.Close()

	err = run(ctx, a, args[0], args[1:], in, out)
	if errors.Is(err, errUsage) {
		printUsage(out)
		return 2
	}
	if err != nil {
		log.Debug("command failed", "command", args[0], "error", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func run(ctx context.Context, a *app, command string, args []string, in io.Reader, out io.Writer) error {
	switch command {
	case "restaurants":
		restaurants, err := a.catalog.Restaurants(ctx)
		if err != nil {
			return report(out, err)
		}
		fmt.Fprintln(out, "--- Restaurants ---")
		for _, r := range restaurants {
			fmt.Fprintf(out, "%s. %s (%s) %.1f stars, %s\n", r.ID, r.Name, r.Cuisine, r.Rating, r.DeliveryTime)
		}

	case "menu":
		if len(args) != 1 {
			fmt.Fprintln(out, "Usage: menu <restaurant_id>")
			return errUsage
		}
		r, err := a.catalog.Restaurant(ctx, args[0])
		if err != nil {
			return report(out, err)
		}
		items, err := a.catalog.Menu(ctx, r.ID)
		if err != nil {
			return report(out, err)
		}
		fmt.Fprintf(out, "--- %s ---\n%s\n", r.Name, r.Description)
		if len(items) == 0 {
			fmt.Fprintln(out, "No menu items available.")
		}
		for _, it := range items {
			fmt.Fprintf(out, "%s. %s $%s [%s]\n", it.ID, it.Name, it.Price.StringFixed(2), it.Category)
		}

	case "add":
		if len(args) < 2 || len(args) > 3 {
			fmt.Fprintln(out, "Usage: add <restaurant_id> <item_id> [quantity]")
			return errUsage
		}
		quantity := 1
		if len(args) == 3 {
			q, err := strconv.Atoi(args[2])
			if err != nil {
				return report(out, fmt.Errorf("invalid quantity %q", args[2]))
			}
			quantity = q
		}
		it, err := a.catalog.FindMenuItem(ctx, args[0], args[1])
		if err != nil {
			return report(out, err)
		}
		err = a.cart.AddItem(ctx, it, quantity)
		var conflict *domain.RestaurantConflictError
		if errors.As(err, &conflict) {
			if !confirm(in, out, "Clear your cart and add this item instead? [y/N] ") {
				fmt.Fprintln(out, "Cart left unchanged.")
				return nil
			}
			err = a.cart.ReplaceWith(ctx, conflict.Item, conflict.Quantity)
		}
		if err != nil {
			return report(out, err)
		}

	case "remove":
		if len(args) != 1 {
			fmt.Fprintln(out, "Usage: remove <item_id>")
			return errUsage
		}
		return report(out, a.cart.RemoveItem(ctx, args[0]))

	case "update":
		if len(args) != 2 {
			fmt.Fprintln(out, "Usage: update <item_id> <quantity>")
			return errUsage
		}
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return report(out, fmt.Errorf("invalid quantity %q", args[1]))
		}
		if err := a.cart.UpdateQuantity(ctx, args[0], q); err != nil {
			return report(out, err)
		}
		printCart(out, a)

	case "inc", "dec":
		if len(args) != 1 {
			fmt.Fprintf(out, "Usage: %s <item_id>\n", command)
			return errUsage
		}
		step := a.cart.Increment
		if command == "dec" {
			step = a.cart.Decrement
		}
		if err := step(ctx, args[0]); err != nil {
			return report(out, err)
		}
		printCart(out, a)

	case "cart":
		printCart(out, a)

	case "clear":
		if err := a.cart.Clear(ctx); err != nil {
			return report(out, err)
		}
		fmt.Fprintln(out, "Cart cleared")

	case "login":
		if len(args) != 2 {
			fmt.Fprintln(out, "Usage: login <email> <password>")
			return errUsage
		}
		if !a.session.Login(ctx, args[0], args[1]) {
			return domain.ErrAuth
		}

	case "register":
		if len(args) != 3 {
			fmt.Fprintln(out, "Usage: register <name> <email> <password>")
			return errUsage
		}
		if !a.session.Register(ctx, args[0], args[1], args[2]) {
			return domain.ErrRegistration
		}

	case "logout":
		a.session.Logout(ctx)

	case "whoami":
		id, ok := a.session.Identity()
		if !ok {
			fmt.Fprintln(out, "Not logged in")
			return nil
		}
		fmt.Fprintf(out, "%s <%s> (%s)\n", id.Name, id.Email, id.ID)

	case "checkout":
		if len(args) == 0 {
			fmt.Fprintln(out, "Usage: checkout <delivery address>")
			return errUsage
		}
		printCart(out, a)
		order, err := a.checkout.PlaceOrder(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s is %s, total $%s\n", order.ID, order.Status, order.TotalAmount.StringFixed(2))

	case "orders":
		orders, err := a.orders.List(ctx)
		if err != nil {
			return report(out, err)
		}
		if len(orders) == 0 {
			fmt.Fprintln(out, "No orders yet")
		}
		for _, o := range orders {
			fmt.Fprintf(out, "%s  %s  %-9s  $%s  %s\n",
				o.CreatedAt.Local().Format("2006-01-02 15:04"), o.ID, o.Status, o.TotalAmount.StringFixed(2), o.DeliveryAddress)
		}

	case "watch":
		if a.amqpCh == nil {
			return report(out, errors.New("watch needs AMQP_URL"))
		}
		feed, err := usecase.NewNotificationFeed(rabbitmq.NewSubscriber(a.amqpCh, a.log.WithComponent("rabbitmq").Logger))
		if err != nil {
			return report(out, err)
		}
		if err := feed.Start(ctx, a.console); err != nil {
			return report(out, err)
		}
		fmt.Fprintln(out, "Watching notifications, press Ctrl+C to stop")
		<-ctx.Done()

	default:
		return errUsage
	}
	return nil
}

func printCart(out io.Writer, a *app) {
	cart := a.cart.Snapshot()
	if cart.IsEmpty() {
		fmt.Fprintln(out, "Your cart is empty")
		return
	}
	fmt.Fprintf(out, "--- Cart (restaurant %s, %d items) ---\n", cart.RestaurantID, cart.ItemCount())
	for _, l := range cart.Lines {
		fmt.Fprintf(out, "%s. %s x%d  $%s\n", l.Item.ID, l.Item.Name, l.Quantity, l.Subtotal().StringFixed(2))
	}
	s := a.checkout.Summary()
	fmt.Fprintf(out, "Subtotal     $%s\n", s.Subtotal.StringFixed(2))
	fmt.Fprintf(out, "Delivery fee $%s\n", s.DeliveryFee.StringFixed(2))
	fmt.Fprintf(out, "Tax          $%s\n", s.Tax.StringFixed(2))
	fmt.Fprintf(out, "Total        $%s\n", s.Total.StringFixed(2))
}

// report prints err for the user and passes it through.
func report(out io.Writer, err error) error {
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	return err
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Storefront CLI usage:")
	fmt.Fprintln(out, "  restaurants                         - List restaurants")
	fmt.Fprintln(out, "  menu <restaurant_id>                - Show a restaurant's menu")
	fmt.Fprintln(out, "  add <restaurant_id> <item_id> [n]   - Add n (default 1) of an item to the cart")
	fmt.Fprintln(out, "  remove <item_id>                    - Remove an item from the cart")
	fmt.Fprintln(out, "  update <item_id> <n>                - Set an item's quantity (0 removes it)")
	fmt.Fprintln(out, "  inc|dec <item_id>                   - Change an item's quantity by one")
	fmt.Fprintln(out, "  cart                                - Show the cart and price summary")
	fmt.Fprintln(out, "  clear                               - Empty the cart")
	fmt.Fprintln(out, "  login <email> <password>            - Log in")
	fmt.Fprintln(out, "  register <name> <email> <password>  - Create an account and log in")
	fmt.Fprintln(out, "  logout                              - Log out")
	fmt.Fprintln(out, "  whoami                              - Show the logged-in user")
	fmt.Fprintln(out, "  checkout <address>                  - Place an order for the cart")
	fmt.Fprintln(out, "  orders                              - Show your order history")
	fmt.Fprintln(out, "  watch                               - Follow notifications over AMQP")
}
