package cmd

import (
	"fmt"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// requireArgs bails out with BadArgs before running the handler when
// the command got fewer positional arguments than it needs.
func requireArgs(min int, handler cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if ctx.NArg() < min {
			if err := cli.ShowCommandHelp(ctx, ctx.Command.Name); err != nil {
				log.Warningf("failed to show --help: %v", err)
			}

			return ExitCode{
				BadArgs,
				fmt.Sprintf(
					"`%s` needs %d argument(s), got %d",
					ctx.Command.Name, min, ctx.NArg(),
				),
			}
		}

		return handler(ctx)
	}
}

func okify(ok bool, yes, no string) string {
	if ok {
		return color.GreenString(yes)
	}

	return color.RedString(no)
}
