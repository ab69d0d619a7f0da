package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"
	e "github.com/pkg/errors"
	"github.com/sahib/config"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/xrash/smetrics"

	"github.com/michalmalik/keyfinder/defaults"
	colorlog "github.com/michalmalik/keyfinder/util/log"
	"github.com/michalmalik/keyfinder/version"
)

const (
	analysisGroup = "ANALYSIS COMMANDS"
	miscGroup     = "MISC COMMANDS"
)

func init() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	log.SetFormatter(&colorlog.FancyLogFormatter{UseColors: true})
}

// routeLog points the log stream at stderr, stdout or an append-only
// file. Results always go to stdout, so file logs keep them apart.
func routeLog(path string) error {
	var out io.Writer

	switch path {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return e.Wrapf(err, "cannot log to %s", path)
		}

		out = fd
	}

	log.SetOutput(out)
	return nil
}

// verbosity maps the -v levels onto logrus levels. Level 1 shows the
// per-round progress, everything above also the path traces.
func setVerbosity(level int) {
	switch {
	case level <= 0:
		log.SetLevel(log.WarnLevel)
	case level == 1:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.DebugLevel)
	}
}

func guessConfigPath(ctx *cli.Context) string {
	if path := ctx.GlobalString("config"); path != "" {
		return path
	}

	home, err := homedir.Dir()
	if err != nil {
		return ""
	}

	path := filepath.Join(home, ".config", "keyfinder", "config.yml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}

	return path
}

// loadConfig returns the validated config: the user's file when one
// exists, pure defaults otherwise.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	if path := guessConfigPath(ctx); path != "" {
		return defaults.Open(path)
	}

	return defaults.OpenEmpty()
}

type suggestion struct {
	name  string
	score float64
}

func findSimilarCommands(cmdName string, cmds []cli.Command) []suggestion {
	similars := []suggestion{}

	for _, cmd := range cmds {
		candidates := append([]string{cmd.Name}, cmd.Aliases...)
		for _, candidate := range candidates {
			score := smetrics.JaroWinkler(cmdName, candidate, 0.7, 4)
			if score >= 0.65 {
				similars = append(similars, suggestion{
					name:  cmd.Name,
					score: score,
				})
				break
			}
		}
	}

	sort.Slice(similars, func(i, j int) bool {
		return similars[i].score > similars[j].score
	})

	return similars
}

func commandNotFound(ctx *cli.Context, cmdName string) {
	similars := findSimilarCommands(cmdName, ctx.App.Commands)

	badCmd := color.RedString(cmdName)
	fmt.Printf("`%s` is not a valid command. ", badCmd)

	switch len(similars) {
	case 0:
		fmt.Printf("\n")
	case 1:
		fmt.Printf("Did you maybe mean `%s`?\n", color.GreenString(similars[0].name))
	default:
		fmt.Println("\n\nDid you mean one of those?")
		for _, similar := range similars {
			fmt.Printf("  * %s\n", color.GreenString(similar.name))
		}
	}
}

// RunCmdline starts the keyfinder commandline tool.
func RunCmdline(args []string) int {
	app := cli.NewApp()
	app.Name = "keyfinder"
	app.Usage = "Recover SPN round subkeys from a full codebook by differential cryptanalysis"
	app.EnableBashCompletion = true
	app.Version = version.String()
	app.CommandNotFound = commandNotFound

	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "verbose,v",
			Usage: "Print more descriptive messages. 1 = progress, 2 or more = everything including paths",
			Value: 0,
		},
		cli.StringFlag{
			Name:   "log-path,l",
			Usage:  "Where to output the log. May be 'stderr' (default), 'stdout' or a file path to append to",
			Value:  "stderr",
			EnvVar: "KEYFINDER_LOG",
		},
		cli.StringFlag{
			Name:   "config,c",
			Usage:  "Path to a config file (default: ~/.config/keyfinder/config.yml)",
			EnvVar: "KEYFINDER_CONFIG",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
	}

	app.Before = func(ctx *cli.Context) error {
		setVerbosity(ctx.GlobalInt("verbose"))

		if ctx.GlobalBool("no-color") {
			color.NoColor = true
			log.SetFormatter(&colorlog.FancyLogFormatter{UseColors: false})
		}

		return routeLog(ctx.GlobalString("log-path"))
	}

	app.Commands = []cli.Command{
		{
			Name:        "recover",
			Category:    analysisGroup,
			Usage:       "Recover subkeys from a codebook",
			ArgsUsage:   "<codebook> <sbox>",
			Description: "Recover one or all round subkeys from a complete codebook.\n   The sbox is given as 16 space separated decimals, e.g. \"6 10 11 15 12 2 13 5 3 8 0 1 14 7 4 9\".",
			Action:      requireArgs(2, handleRecover),
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "all,a",
					Usage: "Recover all five subkeys",
				},
				cli.BoolFlag{
					Name:  "first,f",
					Usage: "Recover the first subkey only",
				},
				cli.BoolFlag{
					Name:  "last",
					Usage: "Recover the last subkey only",
				},
				cli.StringFlag{
					Name:  "backward,b",
					Usage: "Recover the subkey before the given ones; comma separated, last subkey first, format hhhh",
				},
				cli.IntFlag{
					Name:  "threads,t",
					Usage: "Number of workers for the middle-subkey pass",
				},
				cli.BoolFlag{
					Name:  "heur3",
					Usage: "Use 3 active sboxes when generating paths. More accurate, ~10x slower",
				},
				cli.BoolFlag{
					Name:  "heur4",
					Usage: "Use 4 active sboxes when generating paths. Implies --heur3",
				},
			},
		},
		{
			Name:        "generate",
			Category:    analysisGroup,
			Usage:       "Generate the codebook for a known key",
			ArgsUsage:   "<sbox> <key> <output>",
			Description: "Encrypt every 16 bit plaintext under the given 20 hex character key and write the codebook file.",
			Action:      requireArgs(3, handleGenerate),
		},
		{
			Name:      "verify",
			Category:  analysisGroup,
			Usage:     "Check a candidate key against a codebook",
			ArgsUsage: "<codebook> <sbox>",
			Action:    requireArgs(2, handleVerify),
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "key,k",
					Usage: "Candidate key in aaaabbbbccccddddeeee format",
				},
			},
		},
		{
			Name:      "ddt",
			Category:  miscGroup,
			Usage:     "Print the difference distribution table of an sbox",
			ArgsUsage: "<sbox>",
			Action:    requireArgs(1, handleDiffTable),
		},
	}

	if err := app.Run(args); err != nil {
		log.Error(err.Error())

		if exit, ok := err.(ExitCode); ok {
			return exit.Code
		}

		return UnknownError
	}

	return Success
}
