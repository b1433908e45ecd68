package cmd

import (
	"fmt"
	"slices"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/zhengshuai-xiao/HuffPar/internal"
)

var logger = internal.GetLogger("huffpar_cmd")

func Main(args []string) error {
	cli.VersionFlag = &cli.BoolFlag{
		Name: "version", Aliases: []string{"V"},
		Usage: "print version only",
	}
	app := &cli.App{
		Name:                 "huffpar",
		Usage:                "Chunk-parallel Huffman compression for files.",
		Version:              internal.Version(),
		Copyright:            "Apache License 2.0",
		HideHelpCommand:      true,
		EnableBashCompletion: true,
		Flags:                globalFlags(),
		Before:               setup,
		Commands: []*cli.Command{
			cmdCompress(),
			cmdDecompress(),
			cmdInspect(),
			cmdCompare(),
		},
	}

	args, err := reorderOptions(app, args)
	if err != nil {
		return err
	}
	err = app.Run(args)
	if errno, ok := err.(syscall.Errno); ok && errno == 0 {
		err = nil
	}

	return err
}

// setup applies the global logging flags and tags every log line with a fresh run id.
func setup(c *cli.Context) error {
	switch {
	case c.Bool("trace"):
		internal.SetLogLevel(logrus.TraceLevel)
	case c.Bool("verbose"):
		internal.SetLogLevel(logrus.DebugLevel)
	case c.Bool("quiet"):
		internal.SetLogLevel(logrus.WarnLevel)
	default:
		internal.SetLogLevel(internal.ParseLogLevel(c.String("loglevel")))
	}
	if c.Bool("no-color") {
		internal.DisableLogColor()
	}
	if c.Bool("log-json") {
		internal.SetJSONOutput()
	}
	if f := c.String("log-file"); f != "" {
		if err := internal.SetOutFile(f); err != nil {
			return err
		}
	}
	internal.SetLogID(fmt.Sprintf("[%s] ", runID()))
	return nil
}

var currentRun string

func runID() string {
	if currentRun == "" {
		currentRun = uuid.NewString()[:8]
	}
	return currentRun
}

func checkArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s expects %d arguments (%s), got %d", c.Command.Name, n, c.Command.ArgsUsage, c.NArg())
	}
	return nil
}

// reorderOptions moves global flags in front of the command and command flags in front of
// its arguments, so either kind may appear anywhere on the command line.
func reorderOptions(app *cli.App, args []string) ([]string, error) {
	globals := append(append([]cli.Flag{}, app.Flags...), cli.VersionFlag)
	picked, rest, err := pickFlags(globals, args[1:], true)
	if err != nil {
		return nil, err
	}
	newArgs := append([]string{args[0]}, picked...)
	if len(rest) == 0 {
		return newArgs, nil
	}
	cmd := app.Command(rest[0])
	if cmd == nil {
		// not ours, let cli report it
		return append(newArgs, rest...), nil
	}
	newArgs = append(newArgs, rest[0])

	// -h is valid for all the commands
	cmdFlags := append(append([]cli.Flag{}, cmd.Flags...), cli.HelpFlag)
	picked, positional, err := pickFlags(cmdFlags, rest[1:], false)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(rest, "--generate-bash-completion") {
		for _, arg := range positional {
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return nil, fmt.Errorf("unknown option: %s", arg)
			}
		}
	}
	newArgs = append(newArgs, picked...)
	return append(newArgs, positional...), nil
}

// pickFlags splits args into the options found in flags, with their values, and everything
// else in order. With strict set a trailing option missing its value is an error.
func pickFlags(flags []cli.Flag, args []string, strict bool) (picked, rest []string, err error) {
	for i := 0; i < len(args); i++ {
		option := args[i]
		ok, hasValue := isFlag(flags, option)
		if !ok {
			rest = append(rest, option)
			continue
		}
		picked = append(picked, option)
		if !hasValue {
			continue
		}
		if i+1 >= len(args) {
			if strict {
				return nil, nil, fmt.Errorf("option %s requires a value", option)
			}
			continue
		}
		i++
		picked = append(picked, args[i])
	}
	return picked, rest, nil
}

func isFlag(flags []cli.Flag, option string) (bool, bool) {
	if !strings.HasPrefix(option, "-") {
		return false, false
	}
	// --V or -v work the same
	option = strings.TrimLeft(option, "-")
	for _, flag := range flags {
		_, isBool := flag.(*cli.BoolFlag)
		for _, name := range flag.Names() {
			if option == name || strings.HasPrefix(option, name+"=") {
				return true, !isBool && !strings.Contains(option, "=")
			}
		}
	}
	return false, false
}
