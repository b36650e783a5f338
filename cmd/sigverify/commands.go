package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/0gfoundation/0g-sigverify/internal/hexcodec"
	"github.com/0gfoundation/0g-sigverify/internal/sigerr"
	"github.com/0gfoundation/0g-sigverify/internal/verifier"
)

func messageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "message",
			Aliases:  []string{"m"},
			Usage:    "message text exactly as signed",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "hex",
			Usage: "treat --message as hex-encoded bytes",
		},
		&cli.StringFlag{
			Name:     "signature",
			Aliases:  []string{"s"},
			Usage:    "65-byte signature as hex",
			Required: true,
		},
	}
}

func recoverCommand() *cli.Command {
	return &cli.Command{
		Name:   "recover",
		Usage:  "Print the address that signed a message",
		Flags:  messageFlags(),
		Action: recoverAction,
	}
}

func recoverAction(c *cli.Context) error {
	msg, err := messageBytes(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	addr, err := newVerifier(c).RecoverSignerHex(msg, c.String("signature"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", sigerr.Kind(err), err), 1)
	}
	fmt.Fprintln(c.App.Writer, hexcodec.EncodeAddress(addr))
	return nil
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check that an address signed a message (exit 1 when it did not)",
		Flags: append(messageFlags(), &cli.StringFlag{
			Name:     "address",
			Aliases:  []string{"a"},
			Usage:    "expected signer",
			Required: true,
		}),
		Action: verifyAction,
	}
}

func verifyAction(c *cli.Context) error {
	msg, err := messageBytes(c)
	if err != nil {
		fmt.Fprintln(c.App.Writer, "invalid")
		return cli.Exit("", 1)
	}
	if !newVerifier(c).VerifyHex(msg, c.String("signature"), c.String("address")) {
		fmt.Fprintln(c.App.Writer, "invalid")
		return cli.Exit("", 1)
	}
	fmt.Fprintln(c.App.Writer, "valid")
	return nil
}

// batchCase is one entry of a batch file.
type batchCase struct {
	Name      string `yaml:"name"`
	Message   string `yaml:"message"`
	Signature string `yaml:"signature"`
	Address   string `yaml:"address"`
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Verify every case in a YAML file and print a table",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "YAML list of {name, message, signature, address}",
				Required: true,
			},
		},
		Action: batchAction,
	}
}

func batchAction(c *cli.Context) error {
	log := getLogger(c)

	data, err := os.ReadFile(c.Path("file"))
	if err != nil {
		return fmt.Errorf("read batch file: %w", err)
	}
	var cases []batchCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return fmt.Errorf("parse batch file: %w", err)
	}
	log.Debug("loaded batch", zap.Int("cases", len(cases)))

	reqs := make([]verifier.Request, len(cases))
	badAddr := make([]bool, len(cases))
	for i, bc := range cases {
		reqs[i].Message = []byte(bc.Message)
		// An undecodable signature is left nil and fails as malformed.
		reqs[i].Signature, _ = hexcodec.DecodeSignature(bc.Signature)
		addr, err := hexcodec.DecodeAddress(bc.Address)
		if err != nil {
			badAddr[i] = true
		}
		reqs[i].Expected = addr
	}

	results := newVerifier(c).VerifyBatch(c.Context, reqs)

	table := tablewriter.NewWriter(c.App.Writer)
	table.Header("NAME", "EXPECTED", "RECOVERED", "RESULT")

	failed := 0
	for i, res := range results {
		recovered := "-"
		result := "valid"
		switch {
		case res.Err != nil:
			result = sigerr.Kind(res.Err)
			log.Debug("case failed", zap.String("name", cases[i].Name), zap.Error(res.Err))
		default:
			recovered = hexcodec.EncodeAddress(res.Recovered)
			if badAddr[i] {
				result = "malformed_address"
			} else if !res.Valid {
				result = "mismatch"
			}
		}
		if result != "valid" {
			failed++
		}
		table.Append([]string{cases[i].Name, cases[i].Address, recovered, result})
	}
	table.Render()

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d cases failed", failed, len(cases)), 1)
	}
	return nil
}

func messageBytes(c *cli.Context) ([]byte, error) {
	if !c.Bool("hex") {
		return []byte(c.String("message")), nil
	}
	b, err := hexcodec.Decode(c.String("message"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sigerr.ErrMalformedMessage, err)
	}
	return b, nil
}
