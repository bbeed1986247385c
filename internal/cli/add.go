package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/prompt"
	"github.com/tessro/elgato-prompter-text/internal/script"
	"github.com/tessro/elgato-prompter-text/internal/settings"
)

var (
	addName         string
	addChapters     []string
	addChaptersFile string
	addFromStdin    bool
	addMarkdown     bool
	addIndex        int
	addGUID         string
	addDryRun       bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a prompt",
	Long: `Add a prompt script to the prompt directory and register it in AppSettings.json.

Chapters come from --chapter (repeatable), --chapters-file (one chapter per
line, optional YAML frontmatter with name, index and guid) and --from-stdin,
in that order. With --markdown, file and stdin input is read as markdown and
reduced to plain lines.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := addName
	guid := addGUID
	index, indexSet := addIndex, cmd.Flags().Changed("index")

	chapters := append([]string(nil), addChapters...)

	if addChaptersFile != "" {
		data, err := os.ReadFile(addChaptersFile)
		if err != nil {
			return fmt.Errorf("read chapters file: %w", err)
		}
		doc, err := script.Parse(data, addMarkdown)
		if err != nil {
			return usagef("chapters file %s: %v", addChaptersFile, err)
		}
		chapters = append(chapters, doc.Chapters...)
		if name == "" {
			name = doc.Meta.Name
		}
		if guid == "" {
			guid = doc.Meta.GUID
		}
		if !indexSet && doc.Meta.Index != nil {
			index, indexSet = *doc.Meta.Index, true
		}
	}

	if addFromStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if addMarkdown {
			chapters = append(chapters, script.Markdown(data)...)
		} else {
			chapters = append(chapters, script.Lines(string(data))...)
		}
	}

	if strings.TrimSpace(name) == "" {
		return usagef("You must provide --name (or a name in the chapters file frontmatter).")
	}
	if len(chapters) == 0 {
		return usagef("You must provide at least one chapter (use --chapter, --chapters-file, or --from-stdin).")
	}

	p := &prompt.Prompt{
		FriendlyName: name,
		Chapters:     chapters,
		Index:        index,
	}
	if guid != "" {
		normalized, err := prompt.NormalizeGUID(guid)
		if err != nil {
			return usageError(err)
		}
		p.GUID = normalized
	} else {
		p.GUID = prompt.NewGUID()
	}

	if addDryRun {
		return printDryRun(cmd, p, indexSet)
	}

	return withRestart(cmd, func(ctx context.Context) error {
		return addPrompt(cmd, p, indexSet)
	})
}

// printDryRun shows the prompt that would be written.
func printDryRun(cmd *cobra.Command, p *prompt.Prompt, indexSet bool) error {
	s := store()
	if err := s.EnsureDir(); err != nil {
		return err
	}
	if !indexSet {
		next, err := s.NextIndex()
		if err != nil {
			return err
		}
		p.Index = next
	}
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// addPrompt writes p and registers it in AppSettings.json. Without an
// explicit index, p goes after the highest existing index.
func addPrompt(cmd *cobra.Command, p *prompt.Prompt, indexSet bool) error {
	s := store()
	if err := s.EnsureDir(); err != nil {
		return err
	}
	if !indexSet {
		next, err := s.NextIndex()
		if err != nil {
			return err
		}
		p.Index = next
	}

	path, err := s.Write(p)
	if err != nil {
		return err
	}
	spath, err := settings.AddGUID(s.Dir(), p.GUID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created: %s\n", path)
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Updated AppSettings: %s  (+%s)", spath, p.GUID)))
	return nil
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "friendly name shown in the prompter")
	addCmd.Flags().StringArrayVar(&addChapters, "chapter", nil, "add a chapter (repeat for multiple)")
	addCmd.Flags().StringVar(&addChaptersFile, "chapters-file", "", "text file with one chapter per line")
	addCmd.Flags().BoolVar(&addFromStdin, "from-stdin", false, "read chapters from stdin, one per line")
	addCmd.Flags().BoolVar(&addMarkdown, "markdown", false, "treat file and stdin input as markdown")
	addCmd.Flags().IntVar(&addIndex, "index", 0, "position in the library (default: after the highest index)")
	addCmd.Flags().StringVar(&addGUID, "guid", "", "GUID to use (default: random)")
	addCmd.Flags().BoolVar(&addDryRun, "dry-run", false, "print the JSON without writing or restarting")
	rootCmd.AddCommand(addCmd)
}
