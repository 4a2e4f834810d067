package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/webmodal/internal/models"
	"github.com/opencode-ai/webmodal/internal/modald"
)

var (
	dialogAddr    string
	dialogTimeout time.Duration

	dialogOpenSurface string
	dialogOpenTitle   string
	dialogOpenKind    string
	dialogOpenFlag    string
	dialogCloseSelf   bool
)

func init() {
	rootCmd.AddCommand(dialogCmd)
	dialogCmd.PersistentFlags().StringVar(&dialogAddr, "addr", "", "daemon address (default: daemon.host:daemon.port)")
	dialogCmd.PersistentFlags().DurationVar(&dialogTimeout, "timeout", 5*time.Second, "request timeout")

	dialogCmd.AddCommand(dialogOpenCmd)
	dialogCmd.AddCommand(dialogCloseCmd)
	dialogCmd.AddCommand(dialogFlagCmd)
	dialogCmd.AddCommand(dialogVisibilityCmd)
	dialogCmd.AddCommand(dialogInterstitialCmd)
	dialogCmd.AddCommand(dialogCloseAllCmd)
	dialogCmd.AddCommand(dialogStatusCmd)
	dialogCmd.AddCommand(dialogPingCmd)

	dialogOpenCmd.Flags().StringVarP(&dialogOpenSurface, "surface", "s", "", "host surface to open the dialog on (required)")
	dialogOpenCmd.Flags().StringVarP(&dialogOpenTitle, "title", "t", "", "dialog title")
	dialogOpenCmd.Flags().StringVar(&dialogOpenKind, "kind", "", "dialog kind, e.g. alert or auth")
	dialogOpenCmd.Flags().StringVar(&dialogOpenFlag, "close-on-interstitial", "", "override the surface default (true or false)")
	_ = dialogOpenCmd.MarkFlagRequired("surface")

	dialogCloseCmd.Flags().BoolVar(&dialogCloseSelf, "self", false, "report the dialog as having closed itself")
}

var dialogCmd = &cobra.Command{
	Use:   "dialog",
	Short: "Drive dialogs on a running daemon",
	Long: `Open, close and inspect dialogs on the host surfaces owned by a
running webmodal daemon (see 'webmodal serve').`,
}

var dialogOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Queue a dialog on a surface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := modald.OpenDialogRequest{
			Surface: dialogOpenSurface,
			Title:   dialogOpenTitle,
			Kind:    dialogOpenKind,
		}
		if dialogOpenFlag != "" {
			value, err := strconv.ParseBool(dialogOpenFlag)
			if err != nil {
				return fmt.Errorf("invalid --close-on-interstitial %q: %w", dialogOpenFlag, err)
			}
			req.CloseOnInterstitial = &value
		}

		return withDaemon(cmd, func(ctx context.Context, client *modald.Client) error {
			resp, err := client.OpenDialog(ctx, req)
			if err != nil {
				return err
			}
			if IsJSONOutput() || IsJSONLOutput() {
				return WriteOutput(os.Stdout, resp)
			}
			fmt.Println(resp.Handle)
			return nil
		})
	},
}

var dialogCloseCmd = &cobra.Command{
	Use:   "close <handle>",
	Short: "Close a dialog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return surfaceCommand(cmd, func(ctx context.Context, client *modald.Client) (*models.SurfaceStatus, error) {
			return client.CloseDialog(ctx, args[0], dialogCloseSelf)
		})
	},
}

var dialogFlagCmd = &cobra.Command{
	Use:   "flag <handle> <true|false>",
	Short: "Set whether an interstitial closes a dialog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid flag value %q: %w", args[1], err)
		}
		return surfaceCommand(cmd, func(ctx context.Context, client *modald.Client) (*models.SurfaceStatus, error) {
			return client.SetCloseOnInterstitial(ctx, args[0], value)
		})
	},
}

var dialogVisibilityCmd = &cobra.Command{
	Use:   "visibility <surface> <visible|hidden>",
	Short: "Report a surface visibility change",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		visible, err := parseVisibility(args[1])
		if err != nil {
			return err
		}
		return surfaceCommand(cmd, func(ctx context.Context, client *modald.Client) (*models.SurfaceStatus, error) {
			return client.SetVisibility(ctx, args[0], visible)
		})
	},
}

var dialogInterstitialCmd = &cobra.Command{
	Use:   "interstitial <surface>",
	Short: "Attach an interstitial page to a surface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return surfaceCommand(cmd, func(ctx context.Context, client *modald.Client) (*models.SurfaceStatus, error) {
			return client.AttachInterstitial(ctx, args[0])
		})
	},
}

var dialogCloseAllCmd = &cobra.Command{
	Use:   "close-all <surface>",
	Short: "Close every dialog on a surface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return surfaceCommand(cmd, func(ctx context.Context, client *modald.Client) (*models.SurfaceStatus, error) {
			return client.CloseAll(ctx, args[0])
		})
	},
}

var dialogStatusCmd = &cobra.Command{
	Use:   "status [surface]",
	Short: "Show surfaces and their dialog queues",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(ctx context.Context, client *modald.Client) error {
			var surfaces []models.SurfaceStatus
			if len(args) == 1 {
				surface, err := client.GetSurface(ctx, args[0])
				if err != nil {
					return err
				}
				surfaces = []models.SurfaceStatus{*surface}
			} else {
				list, err := client.ListSurfaces(ctx)
				if err != nil {
					return err
				}
				surfaces = list
			}

			if IsJSONOutput() || IsJSONLOutput() {
				return WriteOutput(os.Stdout, surfaces)
			}
			if len(surfaces) == 0 {
				fmt.Println("No surfaces. Open a dialog with 'webmodal dialog open --surface <name>'.")
				return nil
			}
			for i, surface := range surfaces {
				if i > 0 {
					fmt.Println()
				}
				if err := printSurface(surface); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var dialogPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(ctx context.Context, client *modald.Client) error {
			started := time.Now()
			resp, err := client.Ping(ctx)
			if err != nil {
				return err
			}
			if IsJSONOutput() || IsJSONLOutput() {
				return WriteOutput(os.Stdout, resp)
			}
			fmt.Printf("webmodal daemon %s on %s (up %s, rtt %s)\n",
				resp.Version,
				resp.Hostname,
				formatDuration(time.Since(resp.StartedAt)),
				formatDuration(time.Since(started)),
			)
			return nil
		})
	},
}

func withDaemon(cmd *cobra.Command, fn func(context.Context, *modald.Client) error) error {
	addr := dialogAddr
	if addr == "" {
		addr = GetConfig().Daemon.Address()
	}

	client, err := modald.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, dialogTimeout)
	defer cancel()

	if err := fn(ctx, client); err != nil {
		return daemonError(addr, err)
	}
	return nil
}

func surfaceCommand(cmd *cobra.Command, fn func(context.Context, *modald.Client) (*models.SurfaceStatus, error)) error {
	return withDaemon(cmd, func(ctx context.Context, client *modald.Client) error {
		surface, err := fn(ctx, client)
		if err != nil {
			return err
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, surface)
		}
		return printSurface(*surface)
	})
}

func printSurface(surface models.SurfaceStatus) error {
	blocked := "unblocked"
	if surface.Blocked {
		blocked = "blocked"
	}
	fmt.Printf("%s  %s  %s  closed=%d\n", surface.Name, formatSurfaceStatus(surface), blocked, surface.Closed)
	if len(surface.Dialogs) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(surface.Dialogs))
	for _, dialog := range surface.Dialogs {
		front := ""
		if dialog.Front {
			front = "*"
		}
		rows = append(rows, []string{
			front,
			dialog.Handle,
			dialog.ID,
			formatDialogState(dialog.State),
			formatYesNo(dialog.CloseOnInterstitial),
			dialog.Title,
		})
	}
	return writeTable(os.Stdout, []string{"", "HANDLE", "ID", "STATE", "INTERSTITIAL", "TITLE"}, rows)
}

func parseVisibility(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "visible", "shown", "show", "true", "1":
		return true, nil
	case "hidden", "hide", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid visibility %q (expected visible or hidden)", value)
	}
}
