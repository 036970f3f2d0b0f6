package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docrag/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "docrag",
		Short:         "Index a documentation corpus and answer questions grounded in it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to YAML config (default: ./config.yaml, then ~/.config/docrag/config.yaml)")
	root.AddCommand(
		newIngestCmd(&cfgPath),
		newServeCmd(&cfgPath),
		newAskCmd(&cfgPath),
	)
	return root
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}
