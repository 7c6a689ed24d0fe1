// Package cmd provides the CLI commands for the Novix channel gateway.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/novix-hq/channelgate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "channelgate",
	Short: "Channelgate - Novix messaging channel gateway",
	Long: `Channelgate is the Novix inbound messaging gateway.

It receives webhook deliveries from WhatsApp (self-hosted WAHA and the
official Cloud API) and Meta (Instagram Direct, Facebook Messenger),
normalizes every payload into one canonical message shape, persists it,
and forwards WhatsApp text messages to the conversational bot.

Quick start:
  1. Create a config file: channelgate.yaml
  2. Run: channelgate start

Configuration:
  Config is loaded from channelgate.yaml in the current directory,
  $HOME/.channelgate/, or /etc/channelgate/.

  Environment variables can override config values with the CHANNELGATE_ prefix.
  Example: CHANNELGATE_SERVER_HTTP_ADDR=:9090

Commands:
  start       Start the gateway server
  hash-key    Generate a hash for an admin API key
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./channelgate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
