package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/docchat/internal/session"
	"github.com/user/docchat/internal/tokens"
	"github.com/user/docchat/internal/types"
)

func init() {
	rootCmd.AddCommand(chatCmd, historyCmd)
	chatCmd.Flags().Bool("sources", false, "show retrieval sources with answers")
	historyCmd.Flags().Bool("tokens", false, "print transcript token statistics")
}

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the selected document a question, or start an interactive session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		coord, err := newCoordinator(cfg)
		if err != nil {
			return err
		}
		if coord.SelectedDocument() == nil {
			return fmt.Errorf("no document selected; use 'docchat doc select <name>'")
		}

		if showSources, _ := cmd.Flags().GetBool("sources"); showSources && !coord.SourcesVisible() {
			coord.ToggleSources()
		}

		if len(args) == 1 {
			return askOnce(cmd, coord, args[0])
		}

		sel := coord.SelectedDocument()
		fmt.Printf("Chatting with %s. Type /quit to exit, /sources to toggle sources.\n", sel.Name)
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/sources":
				if coord.ToggleSources() {
					fmt.Println("Sources on.")
				} else {
					fmt.Println("Sources off.")
				}
				continue
			}
			if err := askOnce(cmd, coord, line); err != nil {
				return err
			}
		}
	},
}

func askOnce(cmd *cobra.Command, coord *session.Coordinator, question string) error {
	// A remote failure appends the apology message and sets the banner;
	// both are surfaced below, so the loop keeps going.
	if err := coord.Ask(cmd.Context(), question); err != nil {
		slog.Debug("ask failed", "error", err)
	}
	msgs, err := coord.Transcript(cmd.Context())
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}
	printMessage(msgs[len(msgs)-1], coord.SourcesVisible())
	if banner := coord.LastError(); banner != "" {
		fmt.Fprintln(os.Stderr, banner)
		coord.ClearError()
	}
	return nil
}

func printMessage(msg *types.Message, showSources bool) {
	fmt.Println(msg.Content)
	if showSources && len(msg.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range msg.Sources {
			fmt.Printf("- %s (%s)\n", src.Source, src.Type)
		}
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the transcript of the selected document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		coord, err := newCoordinator(cfg)
		if err != nil {
			return err
		}
		sel := coord.SelectedDocument()
		if sel == nil {
			return fmt.Errorf("no document selected")
		}

		msgs, err := coord.Transcript(cmd.Context())
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
		if len(msgs) == 0 {
			fmt.Printf("No messages yet for %s.\n", sel.Name)
			return nil
		}
		for _, msg := range msgs {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
		}

		if withTokens, _ := cmd.Flags().GetBool("tokens"); withTokens {
			counter, err := tokens.New()
			if err != nil {
				return fmt.Errorf("load tokenizer: %w", err)
			}
			fmt.Printf("\n%d messages, ~%d tokens\n", len(msgs), counter.TranscriptTokens(msgs))
		}
		return nil
	},
}
