package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
)

var openDryRun bool

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().BoolVar(&openDryRun, "dry-run", false, "print the URI instead of opening it")
}

var openCmd = &cobra.Command{
	Use:   "open <tel:NUMBER|location:ADDRESS>",
	Short: "Open a dial or map target directly",
	Long:  "Resolves a link target the same way chat replies are resolved and hands it to the dialer or map app. The dialer opens pre-filled; no call is placed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		var d actions.Dispatcher = actions.NewHandoff(e.cfg.Apps)
		if openDryRun {
			d = nil
		}
		return openTarget(cmd.OutOrStdout(), args[0], e.cfg.Apps, d)
	},
}

// openTarget resolves a raw target and dispatches it. A nil dispatcher
// prints the URI that would be opened.
func openTarget(w io.Writer, target string, apps config.AppsConfig, d actions.Dispatcher) error {
	a, ok := linkify.Resolve(target)
	if ok && a.Type == linkify.ActionDial && strings.Trim(a.Target, "0123456789") != "" {
		ok = false
	}
	if !ok {
		return fmt.Errorf("%q is not a dial or map target (want tel:DIGITS or location:ADDRESS)", target)
	}
	uri, err := actions.URIFor(a, apps)
	if err != nil {
		return err
	}
	if d == nil {
		fmt.Fprintln(w, uri)
		return nil
	}
	if err := d.Dispatch(a); err != nil {
		return err
	}
	fmt.Fprintf(w, "  Opened %s\n", uri)
	return nil
}
