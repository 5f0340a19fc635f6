package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	browseropts "github.com/ibeckermayer/xextract/internal/browser"
	"github.com/ibeckermayer/xextract/internal/config"
)

var openCmd = &cobra.Command{
	Use:       "open <config|cache>",
	Short:     "Open the config file or the cache directory",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"config", "cache"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		var err error

		switch args[0] {
		case "config":
			path, err = config.ConfigPath()
		case "cache":
			path, err = config.CacheDir()
		default:
			return fmt.Errorf("unknown target: %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get path: %w", err)
		}

		return browser.OpenFile(path)
	},
}

var botTestCmd = &cobra.Command{
	Use:   "bot-test",
	Short: "Open bot.sannysoft.com to audit the browser fingerprint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println("Opening bot.sannysoft.com with stealth browser options...")
		closeBrowser, err := browseropts.BotTest(cmd.Context(), cfg.Extraction)
		if err != nil {
			return err
		}
		defer closeBrowser()

		fmt.Println("Press Enter to end program...")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd, botTestCmd)
}
