package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aagoksoy/http-load-tester/internal/banner"
	"github.com/aagoksoy/http-load-tester/internal/cli"
	"github.com/aagoksoy/http-load-tester/internal/config"
	"github.com/aagoksoy/http-load-tester/internal/dummy"
	"github.com/aagoksoy/http-load-tester/internal/storage"
)

var (
	cfgFile string

	// CLI flags
	qps         float64
	duration    int
	method      string
	headersJSON string
	payloadJSON string
	output      string
	concurrency int
	timeoutSec  int
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "loadtest [url]",
	Short: "Rate-controlled HTTP load generator",
	Long: `
loadtest issues requests against a target URL at a fixed QPS for a fixed
duration, bounds in-flight concurrency, and writes a JSON latency summary.

Example:
  loadtest http://localhost:8080/fast --qps 50 --duration 10 --concurrency 8`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		applyConfigFile(cmd)

		opts := config.Options{
			URL:         args[0],
			Method:      method,
			Headers:     headersJSON,
			Payload:     payloadJSON,
			QPS:         qps,
			Duration:    duration,
			Concurrency: concurrency,
			TimeoutSec:  timeoutSec,
			Output:      output,
		}
		cfg, err := opts.Build()
		if err != nil {
			return err
		}

		return cli.Start(cfg, quiet)
	},
	SilenceUsage: true,
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(dummyCmd)
	rootCmd.AddCommand(historyCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.loadtest.yaml)")

	rootCmd.Flags().Float64Var(&qps, "qps", 1, "Queries per second")
	rootCmd.Flags().IntVarP(&duration, "duration", "d", 10, "Duration of the test in seconds")
	rootCmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method to use")
	rootCmd.Flags().StringVar(&headersJSON, "headers", "{}", "HTTP headers as JSON object string")
	rootCmd.Flags().StringVar(&payloadJSON, "payload", "{}", "HTTP payload as JSON object string")
	rootCmd.Flags().StringVarP(&output, "output", "o", "results.json", "Output file for results")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Number of concurrent requests")
	rootCmd.Flags().IntVar(&timeoutSec, "timeout", 0, "Per-request timeout in seconds (0 = none)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress line")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".loadtest")
		}
	}
	viper.SetEnvPrefix("LOADTEST")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

// applyConfigFile fills in config-file/env values for flags the user did
// not set explicitly. Flags win.
func applyConfigFile(cmd *cobra.Command) {
	if !cmd.Flags().Changed("qps") && viper.IsSet("qps") {
		qps = viper.GetFloat64("qps")
	}
	if !cmd.Flags().Changed("duration") && viper.IsSet("duration") {
		duration = viper.GetInt("duration")
	}
	if !cmd.Flags().Changed("method") && viper.IsSet("method") {
		method = viper.GetString("method")
	}
	if !cmd.Flags().Changed("concurrency") && viper.IsSet("concurrency") {
		concurrency = viper.GetInt("concurrency")
	}
	if !cmd.Flags().Changed("timeout") && viper.IsSet("timeout") {
		timeoutSec = viper.GetInt("timeout")
	}
	if !cmd.Flags().Changed("output") && viper.IsSet("output") {
		output = viper.GetString("output")
	}
}

// --- Dummy subcommand ---

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a local dummy target server",
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		limit, _ := cmd.Flags().GetFloat64("limit-rps")
		dummy.Start(dummy.ServerConfig{Port: port, LimitRPS: limit})
		select {}
	},
}

// --- History subcommand ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		path, err := storage.DefaultPath()
		if err != nil {
			return err
		}
		store, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		for _, rec := range records {
			fmt.Printf("%s  %s %s  qps=%g dur=%ds  total=%d ok=%d err=%d\n",
				rec.Timestamp.Format("2006-01-02 15:04:05"),
				rec.Config.Method, rec.Config.URL,
				rec.Config.QPS, rec.Config.Duration,
				rec.Summary.TotalRequests,
				rec.Summary.SuccessfulRequests,
				rec.Summary.FailedRequests,
			)
		}
		return nil
	},
}

func init() {
	dummyCmd.Flags().IntP("port", "p", 8080, "Port to run the dummy server on")
	dummyCmd.Flags().Float64("limit-rps", 5, "Token-bucket rate for the /limited endpoint")
	historyCmd.Flags().Int("limit", 20, "Max runs to list")
}
