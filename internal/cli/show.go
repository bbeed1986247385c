package cli

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/prompt"
)

var (
	showGUID  string
	showName  string
	showFile  string
	showWidth int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a prompt's chapters",
	Long:  `Print the chapters of the prompts matching any of --guid, --name or --file.`,
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	match := prompt.Match{GUID: showGUID, Name: showName, File: showFile}
	if match.IsZero() {
		return usagef("Provide one of --guid, --name, or --file to show.")
	}

	s := store()
	if err := s.EnsureDir(); err != nil {
		return err
	}
	matches, err := s.Find(match)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matching prompts found.")
		return &ExitError{Code: ExitNoMatch}
	}

	for i, e := range matches {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, titleStyle.Render(e.Prompt.FriendlyName))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("index=%d  GUID=%s  file=%s", e.Prompt.Index, e.Prompt.GUID, e.File())))
		for n, ch := range e.Prompt.Chapters {
			label := fmt.Sprintf("%3d. ", n+1)
			body := ch
			if showWidth > len(label) {
				body = wordwrap.String(ch, showWidth-len(label))
			}
			body = indent.String(body, uint(len(label)))
			fmt.Fprintln(out, label+strings.TrimPrefix(body, strings.Repeat(" ", len(label))))
		}
	}
	return nil
}

func init() {
	showCmd.Flags().StringVar(&showGUID, "guid", "", "show by GUID")
	showCmd.Flags().StringVar(&showName, "name", "", "show by friendly name (case-insensitive)")
	showCmd.Flags().StringVar(&showFile, "file", "", "show by exact file name in the directory")
	showCmd.Flags().IntVar(&showWidth, "width", 80, "wrap chapters at this width (0 to disable)")
	rootCmd.AddCommand(showCmd)
}
