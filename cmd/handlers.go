package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"

	"github.com/michalmalik/keyfinder/codebook"
	"github.com/michalmalik/keyfinder/crack"
	"github.com/michalmalik/keyfinder/spn"
	"github.com/michalmalik/keyfinder/util"
)

// buildOptions merges the config file values with the command line
// flags; flags win.
func buildOptions(ctx *cli.Context) (crack.Options, error) {
	opts := crack.Options{}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return opts, err
	}

	opts.Threads = int(cfg.Int("recover.threads"))
	opts.ThreeSboxes = cfg.Bool("recover.heur3")
	opts.FourSboxes = cfg.Bool("recover.heur4")

	if ctx.IsSet("threads") {
		opts.Threads = ctx.Int("threads")
	}

	if ctx.Bool("heur3") {
		opts.ThreeSboxes = true
	}

	if ctx.Bool("heur4") {
		opts.ThreeSboxes = true
		opts.FourSboxes = true
	}

	opts.Threads = util.Clamp(opts.Threads, 1, 256)
	return opts, nil
}

func handleRecover(ctx *cli.Context) error {
	args := ctx.Args()

	s, err := spn.New(args.Get(1))
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	book, err := codebook.LoadFile(args.Get(0))
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	opts, err := buildOptions(ctx)
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	log.Infof("will use %d thread(s)", opts.Threads)

	if opts.ThreeSboxes {
		log.Info("will use 3 sboxes!")
	}

	if opts.FourSboxes {
		log.Info("will use 4 sboxes!")
	}

	finder := crack.NewFinder(s, book, opts)

	switch {
	case ctx.Bool("first"):
		return printSingleSubkey(finder.RecoverFirstSubkey())
	case ctx.Bool("last"):
		return printSingleSubkey(finder.RecoverLastSubkey())
	case ctx.String("backward") != "":
		return handleRecoverBackward(ctx, finder)
	case ctx.Bool("all"):
		return handleRecoverAll(finder)
	default:
		return ExitCode{BadArgs, "nothing to do; pass one of --all, --first, --last, --backward"}
	}
}

func printSingleSubkey(subkey uint16, err error) error {
	if err != nil {
		return ExitCode{RecoveryFailed, err.Error()}
	}

	fmt.Printf("%04x\n", subkey)
	return nil
}

func handleRecoverBackward(ctx *cli.Context, finder *crack.Finder) error {
	given := strings.Split(ctx.String("backward"), ",")

	for i, hexKey := range given {
		key, err := strconv.ParseUint(strings.TrimSpace(hexKey), 16, 16)
		if err != nil {
			return ExitCode{BadInput, fmt.Sprintf("cant parse key in list: %s", hexKey)}
		}

		finder.SetSubkey(spn.Nr-i, uint16(key))
		log.Infof("using a given key[%d]=%04x", spn.Nr-i, key)
	}

	wanted := spn.Nr - len(given)
	log.Infof("wanted key[%d]", wanted)

	if wanted <= 1 {
		return ExitCode{BadArgs, "this does not work for key[0], key[1] properly, use another method"}
	}

	start := time.Now()

	subkey, err := finder.RecoverRoundSubkey(wanted)
	if err != nil {
		return ExitCode{RecoveryFailed, err.Error()}
	}

	fmt.Printf("key[%d] = %04x\n", wanted, subkey)
	log.Infof("took: %v", time.Since(start))
	return nil
}

func handleRecoverAll(finder *crack.Finder) error {
	log.Info("starting full key recovery..")
	start := time.Now()

	var key string
	var err error

	if log.GetLevel() < log.InfoLevel {
		// Quiet run: a progress bar over the five subkeys instead of
		// the log stream.
		progress := mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(40))
		bar := progress.AddBar(
			int64(spn.NumSubkeys),
			mpb.PrependDecorators(
				decor.Name("subkeys "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)

		key, err = finder.RecoverAll(func(round int, subkey uint16) {
			bar.Increment()
		})
		progress.Wait()
	} else {
		key, err = finder.RecoverAll(nil)
	}

	if err != nil {
		return ExitCode{RecoveryFailed, err.Error()}
	}

	log.Infof("took: %v", time.Since(start))
	fmt.Printf("full key: %s\n", key)
	return nil
}

func handleGenerate(ctx *cli.Context) error {
	args := ctx.Args()

	s, err := spn.New(args.Get(0))
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	if err := s.SetKey(args.Get(1)); err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	book, err := codebook.Generate(s)
	if err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	fd, err := os.Create(args.Get(2))
	if err != nil {
		return ExitCode{BadInput, fmt.Sprintf("could not create file: %v", err)}
	}

	defer fd.Close()

	if err := book.WriteTo(fd); err != nil {
		return ExitCode{UnknownError, err.Error()}
	}

	log.Infof("wrote %s ciphertexts to %s", humanize.Comma(codebook.Size), args.Get(2))
	return nil
}

func handleVerify(ctx *cli.Context) error {
	key := ctx.String("key")
	if key == "" {
		return ExitCode{BadArgs, "pass a candidate key via --key"}
	}

	args := ctx.Args()

	s, err := spn.New(args.Get(1))
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	book, err := codebook.LoadFile(args.Get(0))
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	finder := crack.NewFinder(s, book, crack.Options{})

	ok, err := finder.TestKey(key)
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	fmt.Printf("key is %s\n", okify(ok, "ok", "wrong"))

	if !ok {
		return ExitCode{RecoveryFailed, "key does not reproduce the codebook"}
	}

	log.Infof("all %s entries match", humanize.Comma(int64(codebook.Size)))
	return nil
}

func handleDiffTable(ctx *cli.Context) error {
	s, err := spn.New(ctx.Args().Get(0))
	if err != nil {
		return ExitCode{BadInput, err.Error()}
	}

	for _, row := range s.DiffTable() {
		line := strings.Builder{}
		for _, count := range row {
			fmt.Fprintf(&line, "%2d ", count)
		}

		fmt.Println(strings.TrimRight(line.String(), " "))
	}

	return nil
}
