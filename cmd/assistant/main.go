// Referral assistant client. Thin line-oriented shell over the protocol
// clients; sign-in identity comes from the environment since the identity
// provider is outside this program.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/careconnect/referral-client/internal/chat"
	"github.com/careconnect/referral-client/internal/config"
	"github.com/careconnect/referral-client/internal/domain"
	"github.com/careconnect/referral-client/internal/feedback"
	"github.com/careconnect/referral-client/internal/locale"
	"github.com/careconnect/referral-client/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = "guest"
	}

	repo, err := session.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize local storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close local storage", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.New(repo, cfg.UserWSURL, cfg.ProfileFetchTimeout)
	if err := store.Restore(ctx); err != nil {
		slog.Warn("Failed to restore session record", "error", err)
	}

	gate := feedback.NewGate()
	store.OnClear(gate.Reset)
	fbClient := feedback.NewClient(cfg.UserWSURL, gate, cfg.FeedbackTimeout)

	transcript := chat.NewTranscript()
	chatClient := chat.NewClient(cfg.ChatWSURL, transcript, cfg.QueryTimeout)

	rec, err := store.FetchWithFeedback(ctx, userID, cfg.Language)
	if err != nil {
		slog.Warn("Profile fetch failed", "error", err)
	}
	fmt.Printf("Signed in as %s\n", rec.DisplayName())

	in := bufio.NewScanner(os.Stdin)
	collectFeedback(ctx, in, fbClient, store)

	msgs := locale.Lookup(cfg.Language)
	fmt.Println(`Type a question, or "/profile", "/signout", "/quit".`)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/profile":
			printProfile(store.Get())
			continue
		case line == "/signout":
			store.Clear()
			fmt.Println("Signed out.")
			return
		}

		qc := chat.QueryContext{
			UserID:   userID,
			Zipcode:  store.Get().Zipcode,
			Language: cfg.Language,
		}
		if _, err := chatClient.SubmitQuery(ctx, line, qc); err != nil {
			var srvErr *chat.ServerError
			if !errors.As(err, &srvErr) {
				slog.Warn("query failed", "error", err)
			}
		}
		printLastAnswer(transcript, msgs)
	}
}

// collectFeedback surfaces pending feedback prompts once per session.
func collectFeedback(ctx context.Context, in *bufio.Scanner, client *feedback.Client, store *session.Store) {
	answers := client.PromptIfPending(store.Get())
	if answers == nil {
		return
	}

	fmt.Println("Did these referrals help you? Reply y, n, or press enter to skip.")
	answered := false
	for i := range answers {
		fmt.Printf("%s ", answers[i].Prompt.Question)
		if !in.Scan() {
			break
		}
		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "y", "yes":
			answers[i].Value = domain.FeedbackYes
			answered = true
		case "n", "no":
			answers[i].Value = domain.FeedbackNo
			answered = true
		}
	}

	if !answered {
		client.Skip()
		return
	}
	if err := client.Submit(ctx, store, answers); err != nil {
		slog.Warn("feedback submission failed", "error", err)
		return
	}
	fmt.Println("Thanks for the feedback!")
}

func printProfile(rec domain.SessionRecord) {
	fmt.Printf("User: %s\nZipcode: %s\nPhone: %s\nEmail: %s\nReferrals: %d\n",
		rec.DisplayName(), rec.Zipcode, rec.Phone, rec.Email, len(rec.Referrals))
}

func printLastAnswer(transcript *chat.Transcript, msgs locale.Messages) {
	entry, ok := transcript.Last()
	if !ok {
		return
	}
	fmt.Println(entry.Text)
	if entry.Answer == nil {
		return
	}
	for _, svc := range entry.Answer.Services {
		fmt.Printf("\n%s\n", svc.Agency)
		if svc.ReferralProcess != "" {
			fmt.Printf("  %s %s\n", msgs.ReferralProcess, svc.ReferralProcess)
		}
		if svc.Hours != "" {
			fmt.Printf("  %s %s\n", msgs.Hours, svc.Hours)
		}
		if svc.Phone != "" {
			fmt.Printf("  %s %s\n", msgs.Phone, svc.Phone)
		}
		if loc := svc.Location(); loc != "" {
			fmt.Printf("  %s %s\n", msgs.Address, loc)
		}
		if svc.AdditionalInfo != "" {
			fmt.Printf("  %s %s\n", msgs.AdditionalInfo, svc.AdditionalInfo)
		}
	}
}
