// Command sigverify recovers and checks EIP-191 personal-message signatures
// from the command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/0gfoundation/0g-sigverify/internal/verifier"
)

const loggerKey = "logger"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			if msg := ec.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "sigverify",
		Usage:     "Recover and verify Ethereum personal-message signatures",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "strict",
				Usage:   "reject high-s signatures",
				EnvVars: []string{"VERIFIER_STRICT"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "debug logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			c.App.Metadata = map[string]any{loggerKey: newLogger(c.Bool("verbose"), c.App.ErrWriter)}
			return nil
		},
		After: func(c *cli.Context) error {
			getLogger(c).Sync() //nolint:errcheck
			return nil
		},
		// Exit codes are handled in main so tests can run the app in-process.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			recoverCommand(),
			verifyCommand(),
			batchCommand(),
		},
	}
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func getLogger(c *cli.Context) *zap.Logger {
	if l, ok := c.App.Metadata[loggerKey].(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

func newVerifier(c *cli.Context) *verifier.Verifier {
	return verifier.New(
		verifier.WithStrict(c.Bool("strict")),
		verifier.WithLogger(getLogger(c)),
	)
}
