package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hivegate/hive-agent/src/hive"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive metastore conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.cleanup(context.Background())

			ctx, err = loginIfNeeded(ctx, a)
			if err != nil {
				return err
			}
			return runREPL(ctx, a)
		},
	}
}

// loginIfNeeded authenticates interactively when no gateway token is
// configured. Three attempts, then give up.
func loginIfNeeded(ctx context.Context, a *app) (context.Context, error) {
	cfg := a.cfg.Hive
	if cfg.Token != "" || cfg.Username == "" {
		return ctx, nil
	}

	for attempt := 1; attempt <= 3; attempt++ {
		password := cfg.Password
		if password == "" {
			fmt.Printf("Password for %s: ", cfg.Username)
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return ctx, fmt.Errorf("read password: %w", err)
			}
			password = string(raw)
		}

		token, err := hive.Login(ctx, cfg.BaseURL, cfg.Username, password, 10*time.Second)
		if err == nil {
			fmt.Println(noticeStyle.Render("logged in"))
			return hive.ContextWithToken(ctx, token), nil
		}
		fmt.Println(errorStyle.Render(fmt.Sprintf("login failed (%d/3): %v", attempt, err)))
		cfg.Password = ""
	}
	return ctx, fmt.Errorf("login failed after 3 attempts")
}

func runREPL(ctx context.Context, a *app) error {
	fmt.Println(noticeStyle.Render("Hive metastore agent. Type /reset to clear the conversation, /exit to quit."))

	scanner := bufio.NewScanner(os.Stdin)
	sessionKey := ""
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/exit", line == "/quit":
			return nil
		case line == "/reset":
			a.agent.ResetSession(sessionKey)
			fmt.Println(noticeStyle.Render("conversation cleared"))
			continue
		}

		reply, err := a.agent.HandleTurn(ctx, sessionKey, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Println(errorStyle.Render("error: " + err.Error()))
			continue
		}
		sessionKey = reply.SessionKey
		fmt.Println(answerStyle.Render(reply.Answer))
	}
}
