package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/bird-catalog/cmd/seed"
	"github.com/tphakala/bird-catalog/cmd/serve"
	"github.com/tphakala/bird-catalog/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bird-catalog",
		Short: "Bird species catalog service",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	// Add sub-commands to the root command.
	serveCmd := serve.Command(settings)
	seedCmd := seed.Command(settings)

	rootCmd.AddCommand(serveCmd, seedCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}

		if err := conf.ValidateSettings(settings); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Server.Port, "port", "p", viper.GetString("server.port"), "Port to listen on")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
