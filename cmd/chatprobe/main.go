// Command chatprobe sends one message through the chat relay using the
// server's AI configuration, for checking keys and endpoints from a shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/arogya-ai/arogya/backend/internal/ai"
	"github.com/arogya-ai/arogya/backend/internal/chat"
	"github.com/arogya-ai/arogya/backend/internal/config"
	"github.com/arogya-ai/arogya/backend/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		message string
		model   string
		baseURL string
		noSys   bool
	)

	cmd := &cobra.Command{
		Use:   "chatprobe",
		Short: "Send a single message to the configured AI provider",
		Example: `  chatprobe --message "hi"
  chatprobe -m "plan my breakfast" --model gemini-1.5-pro`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(cmd.ErrOrStderr())
			logger.Init(os.Getenv("LOG_LEVEL"))

			cfg := config.Load()
			if model != "" {
				cfg.AI.Model = model
			}
			if baseURL != "" {
				cfg.AI.BaseURL = baseURL
			}
			if noSys {
				cfg.AI.SystemPrompt = ""
			}
			return probe(cmd.Context(), cmd, cfg, message)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "message to send")
	cmd.Flags().StringVar(&model, "model", "", "override AI_MODEL")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "override AI_BASE_URL")
	cmd.Flags().BoolVar(&noSys, "no-system-prompt", false, "send the message without the coach instruction")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func probe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, message string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("AI_API_KEY (or GOOGLE_API_KEY) is not set")
	}
	provider := ai.NewOpenAIProvider(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	relay := chat.NewService(provider, nil, chat.Options{SystemPrompt: cfg.AI.SystemPrompt, Timeout: cfg.AI.Timeout})

	logger.Debugf("probing %s model=%s", provider.Name(), provider.Model())
	reply, err := relay.Reply(ctx, "", message)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
