// Command staffconsole is a terminal worklist for cafe staff. It polls the
// admin API, prints pending orders and waiter calls by urgency and logs
// alerts for anything new.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yeremiapane/cafe-ordering/client"
	"github.com/yeremiapane/cafe-ordering/config"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
)

const (
	orderRefresh = 30 * time.Second
	callRefresh  = 15 * time.Second
	worklistSize = services.MaxPageLimit
)

func main() {
	cfg := config.Load()
	utils.InitLoggerWithLevel(cfg.LogLevel)

	var (
		baseURL  = flag.String("url", cfg.PublicBaseURL, "cafe API base URL")
		email    = flag.String("email", os.Getenv("STAFF_EMAIL"), "staff login email")
		password = flag.String("password", os.Getenv("STAFF_PASSWORD"), "staff login password")
		quiet    = flag.Bool("no-alerts", false, "do not run the change notifier")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(*baseURL, nil)
	staff, err := api.Login(ctx, *email, *password)
	if err != nil {
		utils.ErrorLogger.Fatalf("Login failed: %v", err)
	}
	utils.InfoLogger.Printf("Signed in as %s", staff.Role())

	clock := clockwork.NewRealClock()
	if !*quiet {
		notifier := services.NewChangeNotifier(staff.Orders(), staff.Calls(), services.LogSink{}, clock, services.NotifierConfig{
			Interval:        cfg.NotifierInterval,
			SummaryCooldown: cfg.SummaryCooldown,
		})
		notifier.Start(ctx)
		defer notifier.Stop()
	}

	showOrders(ctx, staff, clock)
	showCalls(ctx, staff, clock)

	orderTicker := clock.NewTicker(orderRefresh)
	defer orderTicker.Stop()
	callTicker := clock.NewTicker(callRefresh)
	defer callTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.InfoLogger.Println("Staff console stopped")
			return
		case <-orderTicker.Chan():
			showOrders(ctx, staff, clock)
		case <-callTicker.Chan():
			showCalls(ctx, staff, clock)
		}
	}
}

func showOrders(ctx context.Context, staff *client.StaffClient, clock clockwork.Clock) {
	pending := models.OrderPending
	orders, _, err := staff.ListOrders(ctx, services.OrderFilter{Status: &pending, UrgencyFirst: true}, 1, worklistSize)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to fetch orders")
		return
	}
	preparing := models.OrderPreparing
	inKitchen, _, err := staff.ListOrders(ctx, services.OrderFilter{Status: &preparing, UrgencyFirst: true}, 1, worklistSize)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to fetch orders")
		return
	}
	if err := renderOrders(os.Stdout, append(orders, inKitchen...), clock.Now()); err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to render orders")
	}
}

func showCalls(ctx context.Context, staff *client.StaffClient, clock clockwork.Clock) {
	pending := models.CallPending
	calls, _, err := staff.ListCalls(ctx, services.CallFilter{Status: &pending, UrgencyFirst: true}, 1, worklistSize)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to fetch waiter calls")
		return
	}
	if err := renderCalls(os.Stdout, calls, clock.Now()); err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to render waiter calls")
	}
}
