package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/kioskcache/internal/config"
	"github.com/varoOP/kioskcache/internal/logger"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Offline cache host for the recruiting kiosk",
	Long: `Kiosk serves the recruiting kiosk page through a versioned offline cache.
The shell files of a generation are cached at install, everything else is
cached as it is fetched, so the kiosk keeps working when the network drops.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kiosk.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().String("origin", "", "origin the kiosk page is served from")
	rootCmd.PersistentFlags().String("generation", "", "cache generation to install")
	rootCmd.PersistentFlags().String("database-dir", "", "directory holding the cache database")
	rootCmd.PersistentFlags().String("shell-manifest", "", "YAML manifest overriding generation and shell files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")

	// Bind flags to viper
	viper.BindPFlag("origin", rootCmd.PersistentFlags().Lookup("origin"))
	viper.BindPFlag("generation", rootCmd.PersistentFlags().Lookup("generation"))
	viper.BindPFlag("database_dir", rootCmd.PersistentFlags().Lookup("database-dir"))
	viper.BindPFlag("shell_manifest", rootCmd.PersistentFlags().Lookup("shell-manifest"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// The configured logger only exists once the config is read
	log := logger.NewLogger()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err == nil {
			log.Info().Str("path", viper.ConfigFileUsed()).Msg("using config file")
		}
	} else {
		viper.SetConfigType("yaml")

		// ./config.yaml wins over $HOME/.kiosk.yaml
		viper.SetConfigName(".kiosk")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		if err := viper.ReadInConfig(); err == nil {
			log.Info().Str("path", viper.ConfigFileUsed()).Msg("using config file")
		}

		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		if err := viper.MergeInConfig(); err == nil {
			log.Info().Str("path", viper.ConfigFileUsed()).Msg("using config file")
		}
	}

	// Environment variables
	viper.SetEnvPrefix("KIOSK")
	viper.AutomaticEnv()
}
