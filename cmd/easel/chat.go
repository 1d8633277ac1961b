package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/cli"
	"github.com/aretw0/easel/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running easel server",
	Long: `Opens a prompt that sends each line as an instruction to a running server.
Type /context to see the canvas, /clear to reset it, exit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		server, _ := cmd.Flags().GetString("server")
		if server == "" {
			server = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		}
		sessionID, _ := cmd.Flags().GetString("session")
		model, _ := cmd.Flags().GetString("model")
		apply, _ := cmd.Flags().GetBool("apply")

		render := tui.Plain
		if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
			width := 80
			if w, _, err := term.GetSize(fd); err == nil && w > 20 {
				width = w - 4
			}
			tui.PrintBanner(os.Stdout, strings.TrimSpace(easel.Version))
			render = tui.NewRenderer(width)
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		err = cli.RunChat(sigCtx, cli.ChatOptions{
			Server:  server,
			Session: sessionID,
			Model:   model,
			Apply:   apply,
			In:      cli.NewInterruptibleReader(os.Stdin, sigCtx.Done()),
			Out:     os.Stdout,
			Render:  render,
		})
		if cli.IsInterrupted(err) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("server", "", "Server base URL (default: http://localhost:<configured port>)")
	chatCmd.Flags().StringP("session", "s", "", "Session id (default: \"default\")")
	chatCmd.Flags().String("model", "", "Model override")
	chatCmd.Flags().Bool("apply", true, "Apply the returned commands to the session canvas")
}
