package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/progress"
	"github.com/tessro/elgato-prompter-text/internal/prompt"
	"github.com/tessro/elgato-prompter-text/internal/script"
	"github.com/tessro/elgato-prompter-text/internal/scriptgen"
)

// scriptGenerator produces a script for a topic.
type scriptGenerator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// newGenerator builds the generator for gen. Tests replace it.
var newGenerator = func(c scriptgen.Config) (scriptGenerator, error) {
	g, err := scriptgen.New(c)
	if err != nil {
		return nil, err
	}
	return g, nil
}

var (
	genName   string
	genDryRun bool
)

var genCmd = &cobra.Command{
	Use:   "gen TOPIC...",
	Short: "Generate a prompt with an LLM",
	Long: `Ask an LLM for a short script about TOPIC and add it as a prompt.

The provider, model and API key come from the [llm] config section or the
ELGATO_PROMPTER_LLM_* environment variables. OPENAI_API_KEY and
ANTHROPIC_API_KEY are used when no key is configured.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: runGen,
}

func runGen(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return usagef("You must provide a topic.")
	}

	gen, err := newGenerator(scriptgen.Config{
		Provider: scriptgen.Provider(cfg.GetLLMProvider()),
		Model:    cfg.LLM.Model,
		APIKey:   cfg.GetAPIKey(),
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return usageError(err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var text string
	err = progress.Run(ctx, progress.Options{
		Label: "Generating script…",
		Out:   cmd.ErrOrStderr(),
		In:    cmd.InOrStdin(),
	}, func(ctx context.Context) error {
		var err error
		text, err = gen.Generate(ctx, topic)
		return err
	})
	if err != nil {
		return err
	}

	chapters := script.Markdown([]byte(text))
	if len(chapters) == 0 {
		return fmt.Errorf("generated script for %q has no chapters", topic)
	}

	name := genName
	if strings.TrimSpace(name) == "" {
		name = "Generated prompt for " + topic
	}
	p := &prompt.Prompt{
		GUID:         prompt.NewGUID(),
		FriendlyName: name,
		Chapters:     chapters,
	}

	if genDryRun {
		return printDryRun(cmd, p, false)
	}
	return withRestart(cmd, func(ctx context.Context) error {
		return addPrompt(cmd, p, false)
	})
}

func init() {
	genCmd.Flags().StringVar(&genName, "name", "", "friendly name (default: \"Generated prompt for TOPIC\")")
	genCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print the JSON without writing or restarting")
	rootCmd.AddCommand(genCmd)
}
