package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/tui"
	"docqa/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents in the terminal",
	Long: `Open an interactive chat. An existing index is loaded on start; otherwise
type /process to ingest data_dir. Type /help for the list of commands.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), true, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	session := usecase.NewSession()
	if !a.cached.IsEmpty() {
		if _, err := a.chat.Initialize(cmd.Context(), session, nil); err != nil {
			return err
		}
	}

	p := tea.NewProgram(tui.New(cmd.Context(), a.chat, session, a.dataDir), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
