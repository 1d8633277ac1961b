package main

import (
	"os"

	"github.com/aretw0/easel/internal/cli"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <document.json> <commands.json>",
	Short: "Apply a commands file to a document file, offline",
	Long: `Applies edit commands to a canvas document without a server or a model.
The document may be a saved snapshot or a bare element array; a missing file
starts from an empty canvas. Commands may be an array or a full model reply.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		png, _ := cmd.Flags().GetString("png")

		_, err = cli.RunApply(cli.ApplyOptions{
			DocPath:      args[0],
			CommandsPath: args[1],
			OutPath:      out,
			PreviewPath:  png,
			Canvas:       cfg.Canvas,
			Logger:       cli.NewLogger(cfg.Log, os.Stderr),
			Out:          cmd.OutOrStdout(),
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("out", "o", "", "Write the result here instead of over the document")
	applyCmd.Flags().String("png", "", "Also render the result as a PNG preview to this path")
}
