package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xextract/internal/app"
	"github.com/ibeckermayer/xextract/internal/natsbus"
	"github.com/ibeckermayer/xextract/internal/types"
)

var (
	sendLimit   int
	sendTimeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:       "send <activate|start|stop|status>",
	Short:     "Send a command to a running xextract serve",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{app.ActionActivate, app.ActionStart, app.ActionStop, app.ActionStatus},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Events.NATSURL == "" {
			return errors.New("send needs events.nats_url (or XEXTRACT_NATS_URL)")
		}
		nc, err := natsbus.Connect(cfg.Events.NATSURL, "xextract-send")
		if err != nil {
			return err
		}
		defer nc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
		defer cancel()

		resp, err := natsbus.Request[app.Command, app.Response](ctx, nc, cfg.Events.CommandSubject,
			app.Command{Action: args[0], Limit: sendLimit})
		if err != nil {
			return err
		}
		return printJSON(resp, resp.Err())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print session events published by xextract serve",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Events.NATSURL == "" {
			return errors.New("watch needs events.nats_url (or XEXTRACT_NATS_URL)")
		}
		nc, err := natsbus.Connect(cfg.Events.NATSURL, "xextract-watch")
		if err != nil {
			return err
		}
		defer nc.Close()

		sub, err := natsbus.Subscribe(nc, cfg.Events.EventSubject, func(_ context.Context, ev types.Event) {
			switch ev.Kind {
			case types.EventProgress:
				fmt.Printf("%s progress %d/%d\n", ev.At.Format(time.TimeOnly), ev.Current, ev.Total)
			case types.EventError:
				fmt.Printf("%s error %s (%d posts kept)\n", ev.At.Format(time.TimeOnly), ev.Message, len(ev.Posts))
			default:
				fmt.Printf("%s %s with %d posts\n", ev.At.Format(time.TimeOnly), ev.State, len(ev.Posts))
			}
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		<-ctx.Done()
		return nil
	},
}

func init() {
	sendCmd.Flags().IntVarP(&sendLimit, "limit", "n", 0, "number of posts for start (default from the server config)")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", time.Minute, "how long to wait for the reply")
	rootCmd.AddCommand(sendCmd, watchCmd)
}

// printJSON writes v indented to stdout and passes err through.
func printJSON(v any, err error) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(v); encErr != nil {
		return encErr
	}
	return err
}
