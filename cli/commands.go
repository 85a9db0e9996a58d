package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/virtualzone/chargebot-easee/easee"
)

// withClient runs fn with a client built from the root options.
func withClient(o *rootOptions, fn func(cmd *cobra.Command, c *easee.Client, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, closeFn, err := o.newClient(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd, client, args)
	}
}

func newLoginCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and cache the tokens",
		Args:  cobra.NoArgs,
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			if _, err := c.Authenticator().AccessToken(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		}),
	}
}

func newChargersCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chargers",
		Short: "List the chargers of the account",
		Args:  cobra.NoArgs,
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			chargers, err := c.Chargers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), chargers)
		}),
	}
}

func newStateCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state CHARGER_ID",
		Short: "Show the state of a charger",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			state, err := c.State(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		}),
	}
}

func newConfigCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config CHARGER_ID",
		Short: "Show the configuration of a charger",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			config, err := c.Configuration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), config)
		}),
	}
}

func newSiteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "site CHARGER_ID",
		Short: "Show the site a charger belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			site, err := c.Site(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), site)
		}),
	}
}

func newPairCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pair CHARGER_ID PIN_CODE",
		Short: "Pair a charger with the account",
		Args:  cobra.ExactArgs(2),
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			return done(cmd, c.Pair(cmd.Context(), args[0], args[1]))
		}),
	}
}

func newUnpairCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unpair CHARGER_ID PIN_CODE",
		Short: "Unpair a charger from the account",
		Args:  cobra.ExactArgs(2),
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			return done(cmd, c.Unpair(cmd.Context(), args[0], args[1]))
		}),
	}
}

func newPauseCmd(o *rootOptions) *cobra.Command {
	return newChargerCommandCmd(o, "pause", "Pause the current charging session", (*easee.Client).PauseCharging)
}

func newResumeCmd(o *rootOptions) *cobra.Command {
	return newChargerCommandCmd(o, "resume", "Resume the current charging session", (*easee.Client).ResumeCharging)
}

func newPollEnergyCmd(o *rootOptions) *cobra.Command {
	return newChargerCommandCmd(o, "poll-energy", "Ask the charger to report its lifetime energy", (*easee.Client).PollLifetimeEnergy)
}

func newChargerCommandCmd(o *rootOptions, use, short string, fn func(*easee.Client, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CHARGER_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withClient(o, func(cmd *cobra.Command, c *easee.Client, args []string) error {
			return done(cmd, fn(c, cmd.Context(), args[0]))
		}),
	}
}

func done(cmd *cobra.Command, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return nil
}
