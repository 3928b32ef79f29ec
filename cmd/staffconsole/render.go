package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
)

func waited(ref, now time.Time) string {
	return now.Sub(ref).Truncate(time.Second).String()
}

func urgencyLabel(item services.Worklistable, now time.Time) string {
	if !item.IsPending() {
		return "-"
	}
	return services.Classify(item.ReferenceTime(), now).String()
}

// renderOrders prints the order worklist, most urgent pending first.
func renderOrders(w io.Writer, orders []models.Order, now time.Time) error {
	services.SortWorklist(orders, now)

	table := tablewriter.NewWriter(w)
	table.Header("Order", "Table", "Status", "Urgency", "Waiting", "Items", "Total")
	for _, o := range orders {
		row := []string{
			o.OrderNumber,
			strconv.FormatUint(uint64(o.TableNumber), 10),
			string(o.Status),
			urgencyLabel(o, now),
			waited(o.CreatedAt, now),
			strconv.Itoa(len(o.Items)),
			fmt.Sprintf("%.2f", o.TotalPrice),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// renderCalls prints the waiter call worklist, most urgent pending first.
func renderCalls(w io.Writer, calls []models.WaiterCall, now time.Time) error {
	services.SortWorklist(calls, now)

	table := tablewriter.NewWriter(w)
	table.Header("Call", "Table", "Status", "Urgency", "Waiting", "Notes")
	for _, c := range calls {
		row := []string{
			strconv.FormatUint(uint64(c.ID), 10),
			strconv.FormatUint(uint64(c.TableNumber), 10),
			string(c.Status),
			urgencyLabel(c, now),
			waited(c.Timestamp, now),
			c.Notes,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
