package main

import (
	"fmt"
	"os"

	"github.com/picccassso/nuptune/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time.
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "nuptune",
		Short: "nuptune is a personal music server for a single local library",
		Long: `nuptune scans a folder of audio files into an in-memory catalogue,
watches it for changes, and serves it over HTTP with on-demand
transcoding, artwork, and a client-side download scheduler.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/nuptune.yaml)")
	rootCmd.PersistentFlags().String("music-dir", "", "root directory of the music library")
	rootCmd.PersistentFlags().String("app-data-dir", "nuptune-data", "directory for the state database, metadata cache, and transcode cache")
	rootCmd.PersistentFlags().String("bind", ":8683", "HTTP listen address")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	viper.BindPFlag("musicDir", rootCmd.PersistentFlags().Lookup("music-dir"))
	viper.BindPFlag("appDataDir", rootCmd.PersistentFlags().Lookup("app-data-dir"))
	viper.BindPFlag("bind", rootCmd.PersistentFlags().Lookup("bind"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("nuptune")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("NUPTUNE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
