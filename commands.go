package main

import (
	"bufio"
	"context"
	"errors"
	"evdesk/src-server/ledger"
	"evdesk/src-server/model"
	"evdesk/src-server/report"
	"evdesk/src-server/utils"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const commandHelp = `commands:
  attendees                                     list attendees
  register <id> <name> <bracket> <loc> <paid>   add an attendee (paid: Yes|No)
  remove <name>                                 remove an attendee and their orders
  menu                                          show the menu
  menu-upload <path>                            replace the menu from a CSV (item,price)
  order <attendee-id> <item> <quantity>         place an order
  orders <attendee-id>                          list an attendee's orders
  remove-order <order-id>                       remove one order
  pay <name> <Yes|No>                           update payment status
  checkin <id>                                  mark an attendee as arrived
  summary [checked-in]                          aggregate + per-person summary
  quit                                          exit`

// The console is just glue: parse a line, call the ledger, print. All
// rules live behind the ledger boundary.
func commandLoop(as *utils.AppState, led *ledger.Ledger) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(commandHelp)
	fmt.Print("> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help":
			fmt.Println(commandHelp)
		case "quit", "exit":
			as.AppCloseSignalChan <- syscall.SIGTERM
			return
		case "attendees":
			listAttendees(ctx, led)
		case "register":
			registerAttendee(ctx, led, args)
		case "remove":
			removeAttendee(ctx, led, args)
		case "menu":
			listMenu(ctx, led)
		case "menu-upload":
			uploadMenu(ctx, led, args)
		case "order":
			placeOrder(ctx, led, args)
		case "orders":
			listOrders(ctx, led, args)
		case "remove-order":
			removeOrder(ctx, led, args)
		case "pay":
			setPaymentStatus(ctx, led, args)
		case "checkin":
			checkIn(ctx, led, args)
		case "summary":
			summary(ctx, as, led, args)
		default:
			fmt.Printf("unknown command %q, try help\n", cmd)
		}
		fmt.Print("> ")
	}
}

func printErr(err error) {
	switch {
	case errors.Is(err, ledger.ErrAlreadyCheckedIn):
		fmt.Println("already checked in")
	case errors.Is(err, ledger.ErrCreditExceeded):
		fmt.Println("rejected:", err)
	default:
		fmt.Println("error:", err)
	}
}

func listAttendees(ctx context.Context, led *ledger.Ledger) {
	attendees, err := led.Attendees(ctx)
	if err != nil {
		printErr(err)
		return
	}
	for _, a := range attendees {
		fmt.Printf("%s  %s  %s  %s  paid=%s  checked_in=%s\n",
			a.ID, a.Name, a.AgeBracket, a.Location, a.Paid, a.CheckedIn)
	}
	fmt.Println(len(attendees), "attendee(s)")
}

func registerAttendee(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 5 {
		fmt.Println("usage: register <id> <name> <bracket> <location> <Yes|No>")
		return
	}
	attendee, err := led.RegisterAttendee(ctx, args[0], args[1], args[2], args[3], model.YesNo(args[4]))
	if err != nil {
		printErr(err)
		return
	}
	fmt.Printf("registered %s (%s), badge saved\n", attendee.Name, attendee.ID)
}

func removeAttendee(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: remove <name>")
		return
	}
	if err := led.RemoveAttendee(ctx, args[0]); err != nil {
		printErr(err)
		return
	}
	fmt.Println("removed", args[0], "and their orders")
}

func listMenu(ctx context.Context, led *ledger.Ledger) {
	menu, err := led.Menu(ctx)
	if err != nil {
		printErr(err)
		return
	}
	for _, m := range menu {
		fmt.Printf("%-30s %6d\n", m.Item, m.Price)
	}
	fmt.Println(len(menu), "item(s)")
}

func uploadMenu(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: menu-upload <path>")
		return
	}
	file, err := os.Open(args[0])
	if err != nil {
		printErr(err)
		return
	}
	defer file.Close()
	if err := led.SetMenuCSV(ctx, file); err != nil {
		printErr(err)
		return
	}
	fmt.Println("menu replaced")
}

func placeOrder(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 3 {
		fmt.Println("usage: order <attendee-id> <item> <quantity>")
		return
	}
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Println("quantity must be a number")
		return
	}
	order, err := led.PlaceOrder(ctx, args[0], args[1], quantity)
	if err != nil {
		printErr(err)
		return
	}
	fmt.Printf("order %s: %s x%d = %d\n", order.ID, order.Item, order.Quantity, order.Total)
}

func listOrders(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: orders <attendee-id>")
		return
	}
	orders, err := led.Orders(ctx, args[0])
	if err != nil {
		printErr(err)
		return
	}
	for _, o := range orders {
		fmt.Printf("%s  %s x%d @ %d = %d\n", o.ID, o.Item, o.Quantity, o.UnitPrice, o.Total)
	}
	used, err := led.UsedCredit(ctx, args[0])
	if err != nil {
		printErr(err)
		return
	}
	fmt.Printf("used %d / %d, remaining %d\n", used, ledger.CreditLimit, ledger.CreditLimit-used)
}

func removeOrder(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: remove-order <order-id>")
		return
	}
	if err := led.RemoveOrder(ctx, args[0]); err != nil {
		printErr(err)
		return
	}
	fmt.Println("order removed")
}

func setPaymentStatus(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: pay <name> <Yes|No>")
		return
	}
	attendee, err := led.SetPaymentStatus(ctx, args[0], model.YesNo(args[1]))
	if err != nil {
		printErr(err)
		return
	}
	fmt.Printf("%s paid=%s, badge refreshed\n", attendee.Name, attendee.Paid)
}

func checkIn(ctx context.Context, led *ledger.Ledger, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: checkin <id>")
		return
	}
	attendee, err := led.CheckIn(ctx, args[0])
	if err != nil {
		printErr(err)
		return
	}
	fmt.Printf("%s from %s is checked in\n", attendee.Name, attendee.Location)
}

func summary(ctx context.Context, as *utils.AppState, led *ledger.Ledger, args []string) {
	checkedInOnly := len(args) == 1 && args[0] == "checked-in"

	start := time.Now()
	aggregate, err := report.AggregateSummary(ctx, led.DB())
	if err != nil {
		printErr(err)
		return
	}
	rows, err := report.PerAttendeeSummary(ctx, led.DB(), checkedInOnly)
	if err != nil {
		printErr(err)
		return
	}
	select {
	case as.MetricChans.DatabaseRead <- float64(time.Since(start).Microseconds()):
	default:
	}

	fmt.Println("headcount:               ", aggregate.Headcount)
	fmt.Println("checked in:              ", aggregate.CheckedIn)
	fmt.Println("money raised:            ", aggregate.MoneyRaised)
	fmt.Println("money from checked-in:   ", aggregate.MoneyFromCheckedIn)
	fmt.Println("order budget:            ", aggregate.OrderBudget)
	fmt.Println("spent by checked-in:     ", aggregate.MoneySpentByCheckedIn)
	fmt.Println("remaining order budget:  ", aggregate.RemainingOrderBudget)
	for _, row := range rows {
		fmt.Printf("%-20s %-40s spent=%d remaining=%d\n",
			row.Name, row.Items, row.TotalSpent, row.Remaining)
	}
}
