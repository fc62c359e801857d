package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dalemusser/linguashift/internal/app/system/compose"
	"github.com/dalemusser/linguashift/internal/client"
	"github.com/dalemusser/linguashift/internal/tui"
)

var (
	chatDebounce time.Duration
	chatPoll     time.Duration
	chatAudience string
	chatTone     string
)

// runProgram is replaced in tests.
var runProgram = func(cmd *cobra.Command, m tea.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err := p.Run()
	return err
}

var chatCmd = &cobra.Command{
	Use:   "chat <channelId>",
	Short: "Open a channel in the terminal composer",
	Long: `Open a channel in the terminal composer.

Jargon in the draft is flagged as you type. Controls:
  enter   - Send
  ctrl+r  - Rewrite for your audience
  ctrl+a  - Send the rewrite instead of the draft
  ctrl+d  - Discard the rewrite
  ctrl+l  - Refresh the channel
  esc     - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().DurationVar(&chatDebounce, "debounce", compose.DefaultDebounce, "pause before the draft is checked")
	chatCmd.Flags().DurationVar(&chatPoll, "poll", tui.DefaultPollInterval, "channel refresh interval")
	chatCmd.Flags().StringVar(&chatAudience, "audience", "", "rewrite audience (defaults to your preset)")
	chatCmd.Flags().StringVar(&chatTone, "tone", "", "rewrite tone (defaults to your preset)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	c, _, err := signedInClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	me, err := c.Me(ctx)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	ch := client.Channel{Client: c, ID: args[0]}
	if _, err := ch.Messages(ctx); err != nil {
		return fmt.Errorf("open channel %s: %w", args[0], err)
	}

	audience, tone := me.AudiencePreset, me.TonePreset
	if chatAudience != "" {
		audience = chatAudience
	}
	if chatTone != "" {
		tone = chatTone
	}

	session := compose.NewSession(c, c, compose.Config{
		Audience: audience,
		Tone:     tone,
		Debounce: chatDebounce,
		Logger:   zap.NewNop(),
	})
	composer := tui.NewComposer(session, ch, tui.Options{
		Title:        "Linguashift · " + args[0],
		Self:         me.ID,
		Names:        map[string]string{me.ID: me.Name},
		PollInterval: chatPoll,
	}).WithContext(ctx)
	defer session.Close()

	if err := runProgram(cmd, composer); err != nil {
		return fmt.Errorf("composer: %w", err)
	}
	return nil
}
