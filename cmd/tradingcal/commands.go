package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/aristath/tradingcal/internal/modules/market_hours"
	"github.com/golang-sql/civil"
	"github.com/spf13/cobra"
)

func (a *app) scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule EXCHANGE START END",
		Short: "List trading sessions between two dates (inclusive)",
		Example: `  tradingcal schedule XSTO 2024-12-01 2024-12-31
  tradingcal schedule cse 2024-01-01 2024-12-31 -o json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate("START", args[1])
			if err != nil {
				return err
			}
			end, err := parseDate("END", args[2])
			if err != nil {
				return err
			}

			schedule, err := a.service.Schedule(args[0], start, end)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), schedule, func(w *table) {
				w.row("DATE", "DAY", "OPEN", "CLOSE", "NOTE")
				for _, s := range schedule.Sessions {
					var notes []string
					if s.SpecialOpen {
						notes = append(notes, "late open")
					}
					if s.SpecialClose {
						notes = append(notes, "early close")
					}
					w.row(s.Date.String(), weekdayOf(s.Date), s.Open.Format("15:04"), s.Close.Format("15:04"), strings.Join(notes, ", "))
				}
				w.flush()
				for _, c := range schedule.Conflicts {
					fmt.Fprintf(w.out, "conflict: %s\n", c)
				}
			})
		},
	}
}

func (a *app) holidaysCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "holidays EXCHANGE",
		Short: "List the named full closures of an exchange in a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = a.now().Year()
			}
			holidays, err := a.service.Holidays(args[0], year)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), holidays, func(w *table) {
				w.row("DATE", "DAY", "NAME")
				for _, h := range holidays {
					w.row(h.Date.String(), weekdayOf(h.Date), strings.Join(h.Names, " / "))
				}
				w.flush()
			})
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Calendar year (default: current year)")
	return cmd
}

func (a *app) exchangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exchanges",
		Short: "List configured exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := a.service.Exchanges()
			return a.render(cmd.OutOrStdout(), infos, func(w *table) {
				w.row("CODE", "NAME", "TIMEZONE", "HOURS", "DAYS", "ALIASES")
				for _, e := range infos {
					w.row(e.Code, e.Name, e.Timezone, e.Open+"-"+e.Close, e.TradingDays, strings.Join(e.Aliases, ","))
				}
				w.flush()
			})
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "status [EXCHANGE...]",
		Short: "Show whether exchanges are open",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: expected RFC 3339", at)
				}
				now = t
			}

			names := args
			if len(names) == 0 {
				names = a.service.Codes()
			}
			statuses := make([]*market_hours.MarketStatus, 0, len(names))
			for _, name := range names {
				status, err := a.service.GetMarketStatus(name, now)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}

			return a.render(cmd.OutOrStdout(), statuses, func(w *table) {
				w.row("EXCHANGE", "STATUS", "DETAIL")
				for _, s := range statuses {
					w.row(s.Exchange, openLabel(s.Open), statusDetail(s))
				}
				w.flush()
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Instant to check, RFC 3339 (default: now)")
	return cmd
}

func parseDate(name, value string) (civil.Date, error) {
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return d, nil
}

func weekdayOf(d civil.Date) string {
	return calendar.WeekdayOf(d).String()[:3]
}

func openLabel(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}

func statusDetail(s *market_hours.MarketStatus) string {
	switch {
	case s.Open && s.EarlyClose:
		return "closes " + s.ClosesAt + " (early close)"
	case s.Open:
		return "closes " + s.ClosesAt
	case s.OpensAt == "":
		return "no session scheduled"
	case s.OpensDate != "":
		return "opens " + s.OpensDate + " " + s.OpensAt
	default:
		return "opens " + s.OpensAt
	}
}
