package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mcdev12/codeduel/clients/matchapi"
	"github.com/mcdev12/codeduel/internal/config"
	"github.com/mcdev12/codeduel/internal/identity"
	"github.com/mcdev12/codeduel/internal/match"
)

// newPlayCmd builds the subcommand that queues up and plays one duel.
func newPlayCmd(configPath *string) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the queue and play a duel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, kind)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "match kind (mcq or coding)")
	return cmd
}

func runPlay(ctx context.Context, configPath, kindFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if kindFlag != "" {
		cfg.Match.Kind = kindFlag
	}

	ident, err := identity.Load(cfg.Session.Path)
	if err != nil && !errors.Is(err, identity.ErrNoIdentity) {
		return err
	}
	// a missing identity is handled by the machine: Error state, no network

	api := matchapi.NewClient(cfg.API.BaseURL, config.Duration(cfg.API.Timeout, 30*time.Second))
	m := match.NewMachine(api, ident, match.Config{
		QueueInterval: config.Duration(cfg.Poll.QueueInterval, 1500*time.Millisecond),
		MatchInterval: config.Duration(cfg.Poll.MatchInterval, 800*time.Millisecond),
		Kind:          cfg.Match.Kind,
	}, clockwork.NewRealClock())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer m.Teardown()

	lines := readLines(ctx)
	m.Start()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nbye")
			return nil
		case snap := <-m.Updates():
			render(snap)
			if snap.State == match.StateFinished {
				return nil
			}
			if snap.State == match.StateError {
				return fmt.Errorf("%s", snap.ErrMsg)
			}
		case line := <-lines:
			handleInput(m, line)
		}
	}
}

// handleInput maps one line of user input to a machine action. "r"
// toggles readiness; a number picks that answer.
func handleInput(m *match.Machine, line string) {
	line = strings.TrimSpace(strings.ToLower(line))
	switch {
	case line == "r":
		m.ToggleReady()
	case line == "":
	default:
		if n, err := strconv.Atoi(line); err == nil && n >= 1 {
			m.SelectAnswer(n - 1)
		}
	}
}

func readLines(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func render(snap match.Snapshot) {
	switch snap.State {
	case match.StateQueued:
		fmt.Println("In queue... searching for an opponent (Ctrl-C to leave)")
	case match.StateMatched:
		renderLobby(snap)
	case match.StateActive:
		renderQuestion(snap)
	case match.StateFinished:
		renderResults(snap)
	case match.StateError:
		fmt.Printf("error: %s\n", snap.ErrMsg)
	}
}

func renderLobby(snap match.Snapshot) {
	opp := "opponent"
	if snap.Session != nil && snap.Session.OpponentUsername != "" {
		opp = snap.Session.OpponentUsername
	}
	you, them := "not ready", "not ready"
	if snap.Ready.YouReady {
		you = "ready"
	}
	if snap.Ready.OpponentReady {
		them = "ready"
	}
	if cd := snap.Ready.CountdownSeconds; cd != nil {
		if *cd > 0 {
			fmt.Printf("Starting in %d...\n", *cd)
		} else {
			fmt.Println("Go!")
		}
		return
	}
	fmt.Printf("Matched against %s | you: %s | %s: %s  (press r to toggle ready)\n", opp, you, opp, them)
}

func renderQuestion(snap match.Snapshot) {
	if snap.Result != nil {
		if snap.Result.Correct {
			fmt.Printf("Correct! +%d ELO\n", snap.Result.EloDelta)
		} else {
			fmt.Println("Incorrect.")
		}
		return
	}
	if snap.Question == nil {
		return
	}
	fmt.Printf("\n%s\n", snap.Question.Title)
	if snap.Question.Descriptor != "" {
		fmt.Println(snap.Question.Descriptor)
	}
	for i, choice := range snap.Question.Choices {
		fmt.Printf("  %d) %s\n", i+1, choice)
	}
	if t := snap.TimeLeftSeconds; t != nil {
		fmt.Printf("time left: %ds\n", *t)
	}
	fmt.Print("answer> ")
}

func renderResults(snap match.Snapshot) {
	fmt.Println("\nMatch over.")
	if snap.Results == nil {
		fmt.Println("Results unavailable.")
		return
	}
	for _, p := range []struct {
		label   string
		summary match.ParticipantSummary
	}{
		{"P1", snap.Results.P1},
		{"P2", snap.Results.P2},
	} {
		fmt.Printf("%s %s: %d point(s)\n", p.label, p.summary.Username, p.summary.Score)
	}
}
