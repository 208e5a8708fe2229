package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rendau/kvclient/adapters/cache"
	"github.com/rendau/kvclient/kvc"
	"github.com/rendau/kvclient/logger/zap"
	"github.com/rendau/kvclient/value"
)

var errCommandFailed = errors.New("command failed")

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd.Context(), func(ctx context.Context, c cache.Cache) error {
			v, ok, err := c.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not found", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), value.Encode(v))

			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a value, given in command text form; anything unparsable is stored as a string",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		expire, err := cmd.Flags().GetDuration("expire")
		if err != nil {
			return err
		}

		v, err := value.Parse(args[1])
		if err != nil {
			v = value.String(args[1])
		}

		return withCache(cmd.Context(), func(ctx context.Context, c cache.Cache) error {
			return check(c.Set(ctx, args[0], v, expire))
		})
	},
}

var delCmd = &cobra.Command{
	Use:   "del <key>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd.Context(), func(ctx context.Context, c cache.Cache) error {
			return check(c.Del(ctx, args[0]))
		})
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every key of the group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd.Context(), func(ctx context.Context, c cache.Cache) error {
			return check(c.Clean(ctx))
		})
	},
}

func init() {
	setCmd.Flags().Duration("expire", time.Duration(0), "expiration, whole seconds; 0 keeps the value")
}

func withCache(ctx context.Context, f func(ctx context.Context, c cache.Cache) error) error {
	lg := zap.New(conf.LogLevel, conf.Debug)
	defer lg.Sync()

	client := kvc.New(lg, kvc.OptionsSt{
		Host:     conf.Host,
		Port:     conf.Port,
		UseHttps: conf.Https,
		Password: conf.Password,
		Group:    conf.Group,
		Timeout:  conf.Timeout,
	})

	if !client.Connect(ctx) {
		return fmt.Errorf("can not connect to %s", client.ServiceUrl())
	}

	return f(ctx, client)
}

func check(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errCommandFailed
	}
	return nil
}
