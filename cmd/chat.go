package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/assistant"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/prompt"
	statex "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/state"
	configx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/config"
	groqx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/groq"
)

var (
	chatSession string
	chatMessage string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the reservation assistant",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Session ID (a new one is generated when empty)")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer core.Close()

	llmCfg, err := configx.New[groqx.Config]("GROQ")
	if err != nil {
		return fmt.Errorf("load groq config: %w", err)
	}
	chatModel, err := llmCfg.New(ctx)
	if err != nil {
		return err
	}

	store, err := sessionStore(core.cfg.SessionBackend)
	if err != nil {
		return err
	}

	bot, err := assistant.New(ctx, chatModel, core.registry, store, prompt.LoadPromptSet().Assistant,
		assistant.WithMaxToolRounds(core.cfg.MaxToolRounds),
		assistant.WithMaxMessages(core.cfg.MaxMessages),
	)
	if err != nil {
		return err
	}

	sessionID := strings.TrimSpace(chatSession)
	if sessionID == "" {
		sessionID = "cli:" + uuid.NewString()
	}

	if chatMessage != "" {
		reply, err := bot.HandleMessage(ctx, sessionID, chatMessage)
		if err != nil {
			return err
		}
		printReply(reply)
		return nil
	}
	return runInteractive(ctx, bot, sessionID)
}

func sessionStore(backend string) (statex.Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", backendMemory:
		return statex.NewMemoryStore(), nil
	case backendUpstash:
		cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, fmt.Errorf("load upstash config: %w", err)
		}
		return statex.NewUpstashRedisStore(*cfg)
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}

func runInteractive(ctx context.Context, bot *assistant.Assistant, sessionID string) error {
	fmt.Printf("GoodFoods assistant (session %s). Commands: /reset, /history, exit\n\n", sessionID)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("You: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Println("\nGoodbye!")
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Println("\nGoodbye!")
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch {
		case line == "":
			continue
		case exitCommands[strings.ToLower(line)]:
			fmt.Println("Goodbye!")
			return nil
		case line == "/reset":
			if err := bot.Reset(ctx, sessionID); err != nil {
				fmt.Fprintf(os.Stderr, "reset failed: %v\n", err)
				continue
			}
			fmt.Println("Conversation cleared.")
			continue
		case line == "/history":
			history, err := bot.History(ctx, sessionID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "history failed: %v\n", err)
				continue
			}
			for _, m := range history {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
			}
			continue
		}

		reply, err := bot.HandleMessage(ctx, sessionID, line)
		if err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
			fmt.Println("\nSorry, something went wrong handling that. Please try again.")
			continue
		}
		printReply(reply)
	}
}

func printReply(text string) {
	fmt.Printf("\nGoodFoods: %s\n\n", text)
}
