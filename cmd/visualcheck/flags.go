package main

import (
	"github.com/spf13/cobra"

	"github.com/vertti/visualcheck/pkg/config"
	"github.com/vertti/visualcheck/pkg/theme"
)

var (
	configFile  string
	baseURL     string
	outputDir   string
	browserPath string
	headful     bool
	settleMode  string
	logDir      string
	logLevel    string
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configFile, "config", "c", "", "config file (default: visualcheck.yaml in the working directory)")
	f.StringVar(&baseURL, "base-url", "", "site base URL")
	f.StringVarP(&outputDir, "out", "o", "", "screenshot and report directory")
	f.StringVar(&browserPath, "browser", "", "Chromium executable (default: auto-detect)")
	f.BoolVar(&headful, "headful", false, "show the browser window")
	f.StringVar(&settleMode, "settle", "", "theme settle mode (poll or fixed)")
	f.StringVar(&logDir, "log-dir", "", "directory for the JSON log file")
	f.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig reads the config file and applies flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("out") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("browser") {
		cfg.BrowserPath = browserPath
	}
	if flags.Changed("headful") {
		cfg.Headless = !headful
	}
	if flags.Changed("settle") {
		cfg.Theme.Settle = settleMode
	}
	if flags.Changed("log-dir") {
		cfg.Log.Dir = logDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// settleModes lists the accepted --settle values.
var settleModes = []string{string(theme.ModePoll), string(theme.ModeFixed)}

func init() {
	_ = rootCmd.RegisterFlagCompletionFunc("settle", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return settleModes, cobra.ShellCompDirectiveNoFileComp
	})
}
