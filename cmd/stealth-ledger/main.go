package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/x402labs/stealth-ledger-go/pkg/config"
	"github.com/x402labs/stealth-ledger-go/pkg/field"
	"github.com/x402labs/stealth-ledger-go/pkg/ledger"
)

func main() {
	app := &cli.App{
		Name:  "stealth-ledger",
		Usage: "x402 stealth payment ledger tool",
		Description: `An in-memory stealth payment ledger for the x402 commit-and-prove protocol.

Payments are hidden behind 256-bit commitments bound into a merkle tree.
Proofs open a payment commitment together with a polynomial commitment over
the payment trace and a Fiat-Shamir challenge.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "hash",
				Value:   config.DefaultLedgerConfig().HashAlgorithm,
				Usage:   "Hash algorithm: keccak256, sha256 or sha3-256",
				EnvVars: []string{config.EnvLedgerHash},
			},
			&cli.StringFlag{
				Name:    "modulus",
				Usage:   "Field modulus (decimal or 0x hex); default is the 251-bit reference prime",
				EnvVars: []string{config.EnvLedgerModulus},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "commit",
				Usage: "Compute the commitment hash for a single payment",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "destination", Usage: "32-byte destination identifier, hex", Required: true},
					&cli.Uint64Flag{Name: "amount", Usage: "Payment amount (>= 1)", Required: true},
					&cli.Uint64Flag{Name: "timestamp", Usage: "Unix timestamp; 0 uses the current time"},
				},
				Action: runCommit,
			},
			{
				Name:  "demo",
				Usage: "Run a create/prove/verify round trip against a fresh ledger",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "payments", Value: 5, Usage: "Number of random payments to insert"},
				},
				Action: runDemo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func buildContext(c *cli.Context) (*config.LedgerConfig, *zap.Logger, error) {
	cfg := &config.LedgerConfig{
		HashAlgorithm: c.String("hash"),
		Modulus:       c.String("modulus"),
		Verbose:       c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "configuration error")
	}

	var logger *zap.Logger
	var err error
	if cfg.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "initializing logger")
	}

	return cfg, logger, nil
}

func runCommit(c *cli.Context) error {
	cfg, logger, err := buildContext(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	destination, err := hex.DecodeString(c.String("destination"))
	if err != nil {
		return errors.Wrap(err, "decoding destination")
	}

	opts, err := cfg.LedgerOptions()
	if err != nil {
		return err
	}
	l := ledger.New(append(opts, ledger.WithLogger(logger))...)

	var record ledger.StealthPayment
	if ts := c.Uint64("timestamp"); ts > 0 {
		record, err = l.CreatePayment(destination, c.Uint64("amount"), ts)
	} else {
		record, err = l.CreatePaymentNow(destination, c.Uint64("amount"))
	}
	if err != nil {
		return err
	}

	fmt.Printf("commitment: %s\n", hex.EncodeToString(record.Commitment[:]))
	root, _ := l.GetRoot()
	fmt.Printf("root:       %s\n", hex.EncodeToString(root[:]))
	return nil
}

func runDemo(c *cli.Context) error {
	cfg, logger, err := buildContext(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	count := c.Int("payments")
	if count < 1 {
		return fmt.Errorf("payments must be at least 1, got %d", count)
	}

	opts, err := cfg.LedgerOptions()
	if err != nil {
		return err
	}
	l := ledger.New(append(opts, ledger.WithLogger(logger))...)

	requests := make([]ledger.PaymentRequest, count)
	for i := range requests {
		destination := make([]byte, ledger.DestinationSize)
		if _, err := rand.Read(destination); err != nil {
			return errors.Wrap(err, "generating destination")
		}
		requests[i] = ledger.PaymentRequest{
			Destination: destination,
			Amount:      uint64(100 + i),
			Timestamp:   uint64(1700000000 + i),
		}
	}

	if _, err := l.CreateBatchPayments(requests); err != nil {
		return errors.Wrap(err, "inserting payments")
	}
	root, _ := l.GetRoot()
	logger.Info("ledger populated",
		zap.Int("payments", l.GetPaymentCount()),
		zap.String("root", hex.EncodeToString(root[:])))

	modulus, err := cfg.FieldModulus()
	if err != nil {
		return err
	}
	publicInputs := []field.Element{
		field.NewElementFromUint64(7, modulus),
		field.NewElementFromUint64(11, modulus),
	}

	proof, err := l.GenerateProof(0, publicInputs)
	if err != nil {
		return errors.Wrap(err, "generating proof")
	}
	logger.Info("proof generated",
		zap.String("commitment", hex.EncodeToString(proof.Commitment[:])),
		zap.String("polynomial_commitment", hex.EncodeToString(proof.PolynomialCommitment[:])),
		zap.String("challenge", proof.Challenge.String()))

	if !l.VerifyProof(proof, root) {
		return fmt.Errorf("proof verification failed")
	}
	logger.Info("proof verified")
	return nil
}
