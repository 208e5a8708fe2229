// Command kvc talks to a cache service from the shell:
//
//	kvc --host 127.0.0.1 --port 8080 --password secret --group cache1 set foo '{"n":1}' --expire 1m
//	kvc get foo
//
// Every flag can also come from a KVC_* environment variable or a config file.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rendau/kvclient/kvc"
	"github.com/rendau/kvclient/logger/zap"
	"github.com/rendau/kvclient/tools"
)

type confSt struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Https    bool          `mapstructure:"https"`
	Password string        `mapstructure:"password"`
	Group    string        `mapstructure:"group"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`
	Debug    bool          `mapstructure:"debug"`
}

var (
	conf       = confSt{Host: kvc.DefaultHost, Port: kvc.DefaultPort, Group: kvc.DefaultGroup, LogLevel: zap.LevelWarn}
	configFile string
	vp         = viper.New()
)

var rootCmd = &cobra.Command{
	Use:           "kvc",
	Short:         "Client for the key-value cache service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConf()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	pf.String("host", conf.Host, "service host")
	pf.Int("port", conf.Port, "service port")
	pf.Bool("https", conf.Https, "use https")
	pf.String("password", "", "service password")
	pf.String("group", conf.Group, "group to run commands in")
	pf.Duration("timeout", 0, "http timeout, 0 waits forever")
	pf.String("log_level", conf.LogLevel, "error, warn, info or debug")
	pf.Bool("debug", false, "development logger")

	for _, name := range []string{"host", "port", "https", "password", "group", "timeout", "log_level", "debug"} {
		cobra.CheckErr(vp.BindPFlag(name, pf.Lookup(name)))
	}

	rootCmd.AddCommand(getCmd, setCmd, delCmd, cleanCmd)
}

func loadConf() error {
	tools.SetViperDefaultsFromObj(vp, &conf)

	vp.SetEnvPrefix("kvc")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()

	if configFile != "" {
		vp.SetConfigFile(configFile)
		if err := vp.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := vp.Unmarshal(&conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	return nil
}

func main() {
	ctx, cancel := tools.StopContext(context.Background())
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "kvc:", err)
		os.Exit(1)
	}
}
