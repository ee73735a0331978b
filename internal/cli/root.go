// internal/cli/root.go
package folio

import (
	"fmt"
	"os"
	"strconv"

	"github.com/folioqa/folio/internal/appconfig"
	"github.com/folioqa/folio/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio — retrieval-augmented question answering over a text corpus",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// 2) If user did NOT set a flag, copy the config value into the flag so
		//    both pflags and viper reflect the same, final value.
		if !cmd.Flags().Changed("debug") {
			_ = cmd.Flags().Set("debug", strconv.FormatBool(viper.GetBool("debug")))
		}
		if !cmd.Flags().Changed("topK") {
			_ = cmd.Flags().Set("topK", strconv.Itoa(viper.GetInt("topK")))
		}
		if !cmd.Flags().Changed("collection") {
			_ = cmd.Flags().Set("collection", viper.GetString("collection"))
		}

		// 3) Materialize the fully merged configuration into currentConfig
		//    (flags > config > defaults). This gives other packages a stable snapshot.
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		currentConfig = &cfg

		if cfg.Debug {
			return logging.Init(cfg.LogFilePath())
		}
		return logging.Init("")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Int("topK", 0, "number of chunks to retrieve per question")
	rootCmd.PersistentFlags().String("collection", "", "vector store collection name")

	// Bind flags to Viper keys (flags override config)
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("topK", rootCmd.PersistentFlags().Lookup("topK"))
	_ = viper.BindPFlag("collection", rootCmd.PersistentFlags().Lookup("collection"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config and seeds viper with the defaults, so a
// sparse config file still unmarshals into a usable Config.
func ensureConfigLoaded() error {
	defaults := appconfig.Defaults()
	viper.SetDefault("temperature", defaults.Temperature)
	viper.SetDefault("maxTokens", defaults.MaxTokens)
	viper.SetDefault("topK", defaults.TopK)
	viper.SetDefault("collection", defaults.Collection)
	viper.SetDefault("dataDir", defaults.DataDir)
	viper.SetDefault("chunkWords", defaults.ChunkWords)
	viper.SetDefault("overlapWords", defaults.OverlapWords)
	viper.SetDefault("historyTurns", defaults.HistoryTurns)
	viper.SetDefault("debug", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No file: fine, we'll use defaults/flags
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// requireConfig returns the merged configuration after validating it.
// Commands that talk to the backends call this instead of GetConfig.
func requireConfig() (*appconfig.Config, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
