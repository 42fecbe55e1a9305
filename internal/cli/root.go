package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	verbose    bool
	dataDir    string
	serviceURL string
	noNotify   bool
	noBackup   bool
	noCache    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ies4ctl",
	Short: "ies4ctl - Maintain IES4 regional military database files",
	Long: `ies4ctl maintains the JSON database files behind the IES4 military
database analysis suite.

It adds, updates, and removes entity records (military units, vehicles,
aircraft, missiles, missile systems) in a regional database file, keeps the
shared type descriptors consistent, and nudges the local analyzer web
service to reload and reanalyze the data after a change.

The local file write is the durable effect of every operation; service
notifications are best-effort and never roll a write back.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for ies4ctl.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ies4ctl v0.3.2")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ies4ctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the database JSON files (required; or IES4CTL_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", "", "analyzer web service base URL (default: http://127.0.0.1:5000)")
	rootCmd.PersistentFlags().BoolVar(&noNotify, "no-notify", false, "skip the analyzer service notification sequence")
	rootCmd.PersistentFlags().BoolVar(&noBackup, "no-backup", false, "skip the pre-write backup copy")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the parsed-document cache (force fresh reads)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.ies4ctl")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match IES4CTL_*
	viper.SetEnvPrefix("IES4CTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
