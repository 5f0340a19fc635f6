package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	errorsClear  bool
	historyLimit int
)

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show the most recent logged errors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		if errorsClear {
			if err := e.store.ClearErrors(); err != nil {
				return err
			}
			fmt.Println("Error log cleared")
			return nil
		}

		entries, err := e.store.RecentErrors()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No errors logged")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("%s  %s\n", entry.At.Local().Format(time.DateTime), entry.Message)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent extraction sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		sessions, err := e.store.RecentSessions(historyLimit)
		if err != nil {
			return err
		}
		total, err := e.store.PostCount()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tSTATE\tCOLLECTED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\n", s.ID, s.StartedAt.Local().Format(time.DateTime),
				s.EndedAt.Sub(s.StartedAt).Round(time.Second), s.State, s.Collected, s.Target)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d posts stored\n", total)
		return nil
	},
}

func init() {
	errorsCmd.Flags().BoolVar(&errorsClear, "clear", false, "clear the error log")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of sessions to list")
	rootCmd.AddCommand(errorsCmd, historyCmd)
}
