package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/orders"
	"github.com/angelmondragon/storefront-checkout/internal/paymentmethods"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

const helpText = `commands:
  menu [tag]                       list products (tag defaults to All)
  add <id> [qty]                   add a product from the menu
  remove <id>                      drop a line from the cart
  qty <id> <n>                     set a line's quantity (0 removes)
  cart                             show cart and order summary
  clear                            empty the cart
  like <id>                        add or remove a menu product on the wishlist
  wishlist                         list liked products
  move <id>                        move a liked product into the cart
  addresses                        list saved addresses
  use <n>                          deliver to saved address n
  address recipient|street|city|region|postal|country|phone
  unset-address                    drop the selected address
  forget <n>                       delete saved address n
  pay cod
  pay card <number> <mm/yyyy> <cvv> <holder name>
  pay wallet <provider> <account>
  voucher [code]                   apply or remove a voucher
  checkout                         place the order
  status                           show checkout progress
  orders                           list placed orders
  quit`

type addressLister interface {
	List(ctx context.Context) ([]types.Address, error)
	Remove(ctx context.Context, index int) error
}

type wishlistService interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Toggle(ctx context.Context, product catalog.Product) (bool, error)
	MoveToCart(ctx context.Context, productID int64) error
}

type orderLister interface {
	ListOrders(ctx context.Context) ([]orders.Order, error)
}

type sessionFactory func(ctx context.Context) (*checkout.Session, error)

// shell drives one shopper through the storefront over a line-oriented terminal.
type shell struct {
	out        io.Writer
	logg       *logger.Logger
	catalog    catalog.Catalog
	category   string
	cart       *cart.Store
	addresses  addressLister
	wishlist   wishlistService
	orders     orderLister
	newSession sessionFactory

	session *checkout.Session
	menu    []catalog.Product
	method  paymentmethods.Method
	voucher string
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	if s.session == nil {
		if err := s.startSession(ctx); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			s.prompt()
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := s.exec(ctx, line); err != nil {
			s.printError(err)
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

	switch cmd {
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "menu":
		tag := catalog.TagAll
		if rest != "" {
			tag = rest
		}
		return s.showMenu(ctx, tag)
	case "add":
		return s.add(ctx, args)
	case "remove":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		s.cart.RemoveItem(ctx, id)
		return s.showCart()
	case "qty":
		if len(args) != 2 {
			return usage("qty <id> <n>")
		}
		id, err := parseID(args[:1])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usage("qty <id> <n>")
		}
		if err := s.cart.UpdateQuantity(ctx, id, n); err != nil {
			return err
		}
		return s.showCart()
	case "cart":
		return s.showCart()
	case "clear":
		s.cart.Clear(ctx)
		return s.showCart()
	case "like":
		return s.like(ctx, args)
	case "wishlist":
		return s.showWishlist(ctx)
	case "move":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := s.wishlist.MoveToCart(ctx, id); err != nil {
			return err
		}
		return s.showCart()
	case "addresses":
		return s.showAddresses(ctx)
	case "use":
		if len(args) != 1 {
			return usage("use <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return usage("use <n>")
		}
		return s.session.SelectSavedAddress(ctx, n-1)
	case "address":
		addr, err := parseAddress(rest)
		if err != nil {
			return err
		}
		return s.session.SubmitAddress(ctx, addr)
	case "unset-address":
		return s.session.ClearAddress(ctx)
	case "forget":
		if len(args) != 1 {
			return usage("forget <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return usage("forget <n>")
		}
		return s.forgetAddress(ctx, n-1)
	case "pay":
		method, err := parseMethod(args)
		if err != nil {
			return err
		}
		s.method = method
		return s.updatePayment(ctx)
	case "voucher":
		if s.method == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidPayment, "choose a payment method before applying a voucher")
		}
		s.voucher = rest
		return s.updatePayment(ctx)
	case "checkout":
		return s.checkout(ctx)
	case "status":
		s.showStatus()
		return nil
	case "orders":
		return s.showOrders(ctx)
	default:
		return usage("help")
	}
}

func (s *shell) showMenu(ctx context.Context, tag string) error {
	products := s.catalog.FetchProductsByCategory(ctx, s.category)
	if len(products) > 0 {
		s.menu = products
	}
	shown := catalog.FilterByTag(s.menu, tag)
	if len(shown) == 0 {
		fmt.Fprintln(s.out, "no products available")
		return nil
	}
	for _, p := range shown {
		fmt.Fprintf(s.out, "%4d  %-40s %8s", p.ID, p.Title, money.FormatWithSymbol("$", p.PriceCents()))
		if p.DiscountPercentage > 0 {
			fmt.Fprintf(s.out, "  (was $%s)", p.OriginalPrice().StringFixed(2))
		}
		fmt.Fprintln(s.out)
	}
	return nil
}

func (s *shell) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("add <id> [qty]")
	}
	id, err := parseID(args[:1])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) == 2 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return usage("add <id> [qty]")
		}
	}
	product, ok := catalog.FindByID(s.menu, id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the menu; run menu first").
			WithDetails(map[string]any{"product_id": id})
	}
	return s.cart.AddItem(ctx, product, qty)
}

func (s *shell) like(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	product, ok := catalog.FindByID(s.menu, id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the menu; run menu first").
			WithDetails(map[string]any{"product_id": id})
	}
	liked, err := s.wishlist.Toggle(ctx, product)
	if err != nil {
		return err
	}
	if liked {
		fmt.Fprintf(s.out, "%s added to wishlist\n", product.Title)
	} else {
		fmt.Fprintf(s.out, "%s removed from wishlist\n", product.Title)
	}
	return nil
}

func (s *shell) showWishlist(ctx context.Context) error {
	list, err := s.wishlist.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "wishlist is empty")
		return nil
	}
	for _, p := range list {
		fmt.Fprintf(s.out, "%4d  %-40s %8s\n", p.ID, p.Title, money.FormatWithSymbol("$", p.PriceCents()))
	}
	return nil
}

func (s *shell) updatePayment(ctx context.Context) error {
	if err := s.session.UpdatePayment(ctx, checkout.PaymentInput{Method: s.method, VoucherCode: s.voucher}); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			s.voucher = ""
		}
		return err
	}
	fmt.Fprintf(s.out, "paying with %s\n", s.method.Describe())
	return nil
}

func (s *shell) checkout(ctx context.Context) error {
	order, err := s.session.ContinueCheckout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order %s total %s, %d item(s)\n",
		order.ID, money.FormatWithSymbol("$", order.TotalCents), order.ItemCount())

	s.method = nil
	s.voucher = ""
	return s.startSession(ctx)
}

func (s *shell) startSession(ctx context.Context) error {
	session, err := s.newSession(ctx)
	if err != nil {
		return err
	}
	s.session = session
	return nil
}

func (s *shell) showCart() error {
	items := s.cart.Snapshot()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "cart is empty")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(s.out, "%4d  %-32s x%-3d %10s\n", item.ProductID, item.Title, item.Quantity,
			money.FormatWithSymbol("$", money.ToCents(item.LineTotal())))
	}
	summary := s.session.Summary()
	rows := []struct {
		label string
		cents int64
	}{
		{"subtotal", summary.SubtotalCents},
		{"shipping", summary.ShippingCents},
		{"tax", summary.TaxCents},
		{"discount", -summary.DiscountCents},
		{"voucher", -summary.VoucherDiscountCents},
		{"total", summary.TotalCents},
	}
	for _, row := range rows {
		if row.cents == 0 && (row.label == "discount" || row.label == "voucher") {
			continue
		}
		fmt.Fprintf(s.out, "%42s %10s\n", row.label, money.FormatWithSymbol("$", row.cents))
	}
	return nil
}

func (s *shell) showAddresses(ctx context.Context) error {
	list, err := s.addresses.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "no saved addresses")
		return nil
	}
	for i, addr := range list {
		fmt.Fprintf(s.out, "%2d  %s\n", i+1, addr.OneLine())
	}
	return nil
}

// forgetAddress deletes a saved entry and drops it from the session if it was selected.
func (s *shell) forgetAddress(ctx context.Context, index int) error {
	list, err := s.addresses.List(ctx)
	if err != nil {
		return err
	}
	if err := s.addresses.Remove(ctx, index); err != nil {
		return err
	}
	selected := s.session.State().SelectedAddress
	if selected != nil && index < len(list) && *selected == list[index] {
		if err := s.session.ClearAddress(ctx); err != nil {
			return err
		}
	}
	return s.showAddresses(ctx)
}

func (s *shell) showStatus() {
	state := s.session.State()
	fmt.Fprintf(s.out, "session %s: %s\n", state.SessionID, state.Step)
	if state.SelectedAddress != nil {
		fmt.Fprintf(s.out, "  deliver to %s\n", state.SelectedAddress.OneLine())
	} else {
		fmt.Fprintln(s.out, "  no delivery address")
	}
	if state.PaymentMethod != "" {
		fmt.Fprintf(s.out, "  payment %s (valid: %t)\n", state.PaymentMethod, state.PaymentValid)
	}
	if state.VoucherCode != "" {
		fmt.Fprintf(s.out, "  voucher %s\n", state.VoucherCode)
	}
}

func (s *shell) showOrders(ctx context.Context) error {
	list, err := s.orders.ListOrders(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "no orders yet")
		return nil
	}
	for _, o := range list {
		fmt.Fprintf(s.out, "%s  %s  %-10s %10s  %d item(s)\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"),
			o.Status, money.FormatWithSymbol("$", o.TotalCents), o.ItemCount())
	}
	return nil
}

func (s *shell) prompt() {
	fmt.Fprint(s.out, "> ")
}

func (s *shell) printError(err error) {
	msg := pkgerrors.PublicMessage(err)
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().(map[string]string); ok && pkgerrors.MetadataFor(typed.Code()).DetailsAllowed {
			for field, problem := range details {
				msg += fmt.Sprintf("\n  %s %s", field, problem)
			}
		}
		if !pkgerrors.MetadataFor(typed.Code()).UserInput {
			s.logg.Error(context.Background(), "command failed", err)
		}
	}
	fmt.Fprintf(s.out, "error: %s\n", msg)
}

func usage(form string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "usage: "+form)
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, usage("<command> <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, usage("<command> <id>")
	}
	return id, nil
}

func parseAddress(raw string) (types.Address, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 7 {
		return types.Address{}, usage("address recipient|street|city|region|postal|country|phone")
	}
	return types.Address{
		Recipient:  parts[0],
		Street:     parts[1],
		City:       parts[2],
		Region:     parts[3],
		PostalCode: parts[4],
		Country:    parts[5],
		Phone:      parts[6],
	}, nil
}

func parseMethod(args []string) (paymentmethods.Method, error) {
	if len(args) == 0 {
		return nil, usage("pay cod | pay card ... | pay wallet ...")
	}
	switch enums.PaymentMethodType(args[0]) {
	case "cod", enums.PaymentMethodTypeCashOnDelivery:
		return paymentmethods.CashOnDelivery{}, nil
	case enums.PaymentMethodTypeWallet:
		if len(args) != 3 {
			return nil, usage("pay wallet <provider> <account>")
		}
		return paymentmethods.Wallet{Provider: args[1], Account: args[2]}, nil
	case enums.PaymentMethodTypeCard:
		if len(args) < 5 {
			return nil, usage("pay card <number> <mm/yyyy> <cvv> <holder name>")
		}
		month, year, ok := parseExpiry(args[2])
		if !ok {
			return nil, usage("pay card <number> <mm/yyyy> <cvv> <holder name>")
		}
		return paymentmethods.Card{
			Number:   args[1],
			ExpMonth: month,
			ExpYear:  year,
			CVV:      args[3],
			Holder:   strings.Join(args[4:], " "),
		}, nil
	default:
		return nil, usage("pay cod | pay card ... | pay wallet ...")
	}
}

func parseExpiry(raw string) (int, int, bool) {
	mm, yyyy, found := strings.Cut(raw, "/")
	if !found {
		return 0, 0, false
	}
	month, err := strconv.Atoi(mm)
	if err != nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(yyyy)
	if err != nil {
		return 0, 0, false
	}
	if year < 100 {
		year += 2000
	}
	return month, year, true
}
