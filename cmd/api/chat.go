package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	chatmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/speech"
)

var chatLanguage string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant from the terminal",
	Long: `Starts one session and reads messages from stdin.

Commands:
  /lang english|hindi   switch reply language
  /speech on|off        toggle spoken replies
  /quit                 end the session`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatLanguage, "lang", string(language.English), "initial reply language")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, func(*chat.Hub) (speech.Player, error) {
		if cfg.Speech.PlayerCommand == "" {
			return nil, speech.ErrSpeechUnavailable
		}
		return speech.NewCommandPlayer(cfg.Speech.PlayerCommand)
	})
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.chat.CreateSession(ctx, conversation.WithLanguage(language.Tag(chatLanguage)))
	if err != nil {
		return err
	}
	defer func() { _ = a.chat.EndSession(ctx, snap.SessionID) }()

	out := cmd.OutOrStdout()
	for _, msg := range snap.Messages {
		printMessage(out, msg)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runChatCommand(cmd, a.chat, snap.SessionID, line)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			if quit {
				return nil
			}
			continue
		}

		result, err := a.chat.HandleTurn(ctx, snap.SessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(out, "error:", err)
			continue
		}
		printMessage(out, result.Reply)
	}
}

func runChatCommand(cmd *cobra.Command, svc *chat.Service, sessionID, line string) (bool, error) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/lang":
		snap, err := svc.SetLanguage(cmd.Context(), sessionID, language.Tag(strings.ToLower(arg)))
		if err != nil {
			return false, err
		}
		if len(snap.Messages) == 1 {
			printMessage(cmd.OutOrStdout(), snap.Messages[0])
		}
		return false, nil
	case "/speech":
		_, err := svc.SetSpeechEnabled(cmd.Context(), sessionID, arg == "on")
		return false, err
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
}

func printMessage(w io.Writer, msg chatmodel.Message) {
	who := "you"
	if msg.Role == chatmodel.RoleAssistant {
		who = "bot"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", msg.Timestamp, who, msg.Text)
}
