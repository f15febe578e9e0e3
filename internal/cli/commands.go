package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timesheet/internal/auth"
	"timesheet/internal/domain/attendance"
	"timesheet/internal/platform/config"
	"timesheet/internal/platform/export"
)

func SetupCommands(a *App) *cobra.Command {
	// root command
	rootCmd := &cobra.Command{
		Use:           "timesheet",
		Short:         "Daily attendance check-in and check-out ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(a.attendanceCmd("access", "Record an access: check in, or report today's state", attendance.TriggerAccess))
	rootCmd.AddCommand(a.attendanceCmd("checkout", "Check out of today's open row", attendance.TriggerCheckOut))
	rootCmd.AddCommand(a.showCmd())
	rootCmd.AddCommand(a.ledgersCmd())
	rootCmd.AddCommand(a.exportCmd())
	rootCmd.AddCommand(a.tokenCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	return rootCmd
}

func (a *App) attendanceCmd(use, short string, trigger attendance.Trigger) *cobra.Command {
	var in attendance.Input
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(cfg config.Config, service *attendance.Service) error {
				run := service.Access
				if trigger == attendance.TriggerCheckOut {
					run = service.CheckOut
				}
				result, err := run(cmd.Context(), in)
				if errors.Is(err, attendance.ErrNotCheckedIn) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.LedgerID, result.Status)
					return err
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", result.LedgerID, result.EmployeeName, result.Status)
				if result.Action == attendance.ActionCompleteCheckOut && result.Record.Hours.Valid {
					fmt.Fprintf(cmd.OutOrStdout(), "hours: %s\n", result.Record.Hours.Decimal.StringFixed(2))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.EmployeeID, "id", "", "employee id")
	cmd.Flags().StringVar(&in.EmployeeName, "name", "", "employee name")
	if trigger == attendance.TriggerAccess {
		cmd.Flags().StringVar(&in.Project, "project", "", "project label")
	}
	return cmd
}

func (a *App) showCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "show [employee-id]",
		Short: "Print the recent records of a ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(cfg config.Config, service *attendance.Service) error {
				ledger, err := service.Snapshot(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				n := limit
				if n <= 0 {
					n = cfg.RecentRecords
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ledger - %s\n", ledger.ID)
				printLedger(cmd.OutOrStdout(), newestFirst(ledger.Records, n))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of records (defaults to RECENT_RECORDS)")
	return cmd
}

func (a *App) ledgersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ledgers",
		Short: "List ledger ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(cfg config.Config, service *attendance.Service) error {
				ids, err := service.Ledgers(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func (a *App) exportCmd() *cobra.Command {
	var rawFormat, out string
	cmd := &cobra.Command{
		Use:   "export [employee-id]",
		Short: "Export a ledger as csv, xlsx or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			return a.withService(cmd.Context(), func(cfg config.Config, service *attendance.Service) error {
				ledger, err := service.Snapshot(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					return export.Write(cmd.OutOrStdout(), format, ledger)
				}
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := export.Write(file, format, ledger); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rawFormat, "format", string(export.FormatCSV), "csv, xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout when empty)")
	return cmd
}

func (a *App) tokenCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if password == "" {
				password, err = prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
			}
			issuer := auth.Issuer{Secret: cfg.JWTSecret, PasswordHash: cfg.AdminPasswordHash, TTL: cfg.TokenTTL}
			token, expiresAt, err := issuer.Issue(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "operator password (prompted when empty)")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) > 0 {
				password = args[0]
			} else {
				var err error
				password, err = prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
