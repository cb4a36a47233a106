package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/charityledger/internal/adapter/http/dto"
	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/auth"
	"github.com/iho/charityledger/internal/infrastructure/config"
	"github.com/iho/charityledger/internal/infrastructure/logger"
	"github.com/iho/charityledger/internal/infrastructure/postgres"
)

type rootOptions struct {
	baseURL        string
	timeout        time.Duration
	token          string
	principal      string
	idempotencyKey string
}

// loadConfig is swapped in tests.
var loadConfig = config.Load

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "charityledger-cli",
		Short:         "CharityLedger CLI tool",
		Long:          `A command line interface for the CharityLedger API and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the CharityLedger API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.token, "token", os.Getenv("CHARITYLEDGER_TOKEN"), "Bearer token for signed operations")
	flags.StringVar(&opts.principal, "principal", "", "Signing identity sent as X-Principal when no token is given")
	flags.StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency key for POST requests (random when empty)")

	rootCmd.AddCommand(
		charityCmd(opts),
		walletCmd(opts),
		identityCmd(),
		tokenCmd(),
		migrateCmd(),
	)

	return rootCmd
}

func charityCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charity",
		Short: "Charity operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show the charity record and treasury balance",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return getAndPrint(cmd, opts, "/api/v1/charity/")
			},
		},
		&cobra.Command{
			Use:   "init <beneficiary> <deadline>",
			Short: "Initialize the charity with a unix timestamp deadline",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				deadline, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid deadline %q: %w", args[1], err)
				}
				req := dto.InitializeRequest{Beneficiary: args[0], Deadline: deadline}
				return postAndPrint(cmd, opts, "/api/v1/charity/initialize", req)
			},
		},
		&cobra.Command{
			Use:   "donate <amount>",
			Short: "Donate base units from the signing wallet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmountArg(args[0])
				if err != nil {
					return err
				}
				return postAndPrint(cmd, opts, "/api/v1/charity/donations", dto.DonateRequest{Amount: amount})
			},
		},
		&cobra.Command{
			Use:   "settle",
			Short: "Pay the treasury out to the beneficiary",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return postAndPrint(cmd, opts, "/api/v1/charity/settle", nil)
			},
		},
		donationsCmd(opts),
		&cobra.Command{
			Use:   "settlement",
			Short: "Show the settlement, if any",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return getAndPrint(cmd, opts, "/api/v1/charity/settlement")
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Check treasury balance against recorded donations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return getAndPrint(cmd, opts, "/api/v1/charity/reconciliation")
			},
		},
	)

	return cmd
}

func donationsCmd(opts *rootOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "donations",
		Short: "List donations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))
			return getAndPrint(cmd, opts, "/api/v1/charity/donations?"+q.Encode())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func walletCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "balance <owner>",
			Short: "Show a wallet balance",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				owner, err := domain.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				return getAndPrint(cmd, opts, "/api/v1/wallets/"+owner.String()+"/")
			},
		},
		&cobra.Command{
			Use:   "airdrop <owner> <amount>",
			Short: "Credit a wallet from the development faucet",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				owner, err := domain.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				amount, err := parseAmountArg(args[1])
				if err != nil {
					return err
				}
				path := "/api/v1/wallets/" + owner.String() + "/airdrop"
				return postAndPrint(cmd, opts, path, dto.AirdropRequest{Amount: amount})
			},
		},
	)

	return cmd
}

func identityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Address derivation helpers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "derive <program> <seed>",
			Short: "Derive the address for seed under program",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				program, err := domain.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), domain.DeriveAddress(program, args[1]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "deployment <program>",
			Short: "Show the charity and treasury addresses of a program",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				program, err := domain.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				d := domain.NewDeployment(program)
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"program":  d.Program.String(),
					"charity":  d.Charity.String(),
					"treasury": d.Treasury.String(),
				})
			},
		},
	)

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Issue a bearer token for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}

			if secret == "" || ttl == 0 {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if secret == "" {
					secret = cfg.JWTSecret
				}
				if ttl == 0 {
					ttl = cfg.JWTExpiration
				}
			}
			if secret == "" {
				return fmt.Errorf("no signing secret: pass --secret or set JWT_SECRET")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(identity)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")

	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	migrator := func(cmd *cobra.Command) (*postgres.Migrator, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		lg := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console", Service: "charityledger-cli"}, cmd.ErrOrStderr())
		return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, lg), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				return m.Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				return m.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func getAndPrint(cmd *cobra.Command, opts *rootOptions, path string) error {
	body, err := newAPIClient(opts).get(cmd.Context(), path)
	if err != nil {
		return err
	}
	return printRaw(cmd.OutOrStdout(), body)
}

func postAndPrint(cmd *cobra.Command, opts *rootOptions, path string, req any) error {
	body, err := newAPIClient(opts).post(cmd.Context(), path, req)
	if err != nil {
		return err
	}
	return printRaw(cmd.OutOrStdout(), body)
}

func parseAmountArg(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	if _, err := domain.ParseAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRaw(w io.Writer, raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, werr := w.Write(raw)
		return werr
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
