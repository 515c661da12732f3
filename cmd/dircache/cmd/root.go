package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dircache",
	Short: "Git index plumbing CLI",
	Long:  "CLI for inspecting git index files and turning the staged paths into tree objects.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/dircache/config.yaml)")
	rootCmd.PersistentFlags().String("git-dir", "", "repository directory (default: .git)")
	rootCmd.PersistentFlags().String("object-dir", "", "object store directory (default: <git-dir>/objects)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	viper.BindPFlag("git_dir", rootCmd.PersistentFlags().Lookup("git-dir"))
	viper.BindPFlag("object_dir", rootCmd.PersistentFlags().Lookup("object-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DIRCACHE")
	viper.AutomaticEnv()
	viper.SetDefault("git_dir", ".git")

	viper.ReadInConfig()

	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dircache")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "dircache")
	}
	return ".dircache"
}

func gitDir() string {
	return viper.GetString("git_dir")
}

func indexPath() string {
	return filepath.Join(gitDir(), "index")
}

func objectDir() string {
	if dir := viper.GetString("object_dir"); dir != "" {
		return dir
	}
	return filepath.Join(gitDir(), "objects")
}
