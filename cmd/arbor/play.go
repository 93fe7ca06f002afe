package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/story"
	"github.com/aretw0/arbor/pkg/variables"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// choiceSource picks the next choice id. ok is false when there is nothing
// left to play.
type choiceSource func(options []arbor.ChoiceOption) (id string, ok bool, err error)

type player struct {
	project *arbor.Project
	out     io.Writer
	render  tui.Renderer
	next    choiceSource
	// strict aborts on a rejected choice instead of asking again.
	strict bool
}

func newPlayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <story.yaml>",
		Short: "Play through the story",
		Long: `Starts a playthrough at the start scene and follows choices until a scene
has none left. Choices come from --choose (scripted, stops at the first
rejected choice) or from stdin, one number or choice id per line.

With --project the run is applied to a persisted project: its stored
variables, gates and actions are used and the final state is saved back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			name, _ := flags.GetString("name")
			scripted, _ := flags.GetStringSlice("choose")
			projectID, _ := flags.GetString("project")
			asJSON, _ := flags.GetBool("json")
			plain, _ := flags.GetBool("plain")

			s, err := story.Load(args[0])
			if err != nil {
				return err
			}

			pl := &player{out: cmd.OutOrStdout(), render: tui.PlainRenderer}
			if !plain && isTerminal(cmd.OutOrStdout()) {
				pl.render = tui.NewRenderer(80)
			}
			if flags.Changed("choose") {
				pl.next, pl.strict = scriptSource(scripted), true
			} else {
				pl.next = promptSource(cmd.InOrStdin(), pl.out, isTerminal(cmd.InOrStdin()))
			}

			var final domain.PlaythroughState
			run := func(p *arbor.Project) error {
				pl.project = p
				var playErr error
				final, playErr = pl.play(name)
				return playErr
			}

			if projectID != "" {
				err = a.playProject(cmd.Context(), s, projectID, run)
			} else {
				var p *arbor.Project
				if p, err = arbor.New(s, a.options()...); err == nil {
					err = run(p)
				}
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(pl.out)
				enc.SetIndent("", "  ")
				return enc.Encode(final)
			}
			fmt.Fprintf(pl.out, "\nVisited %s in %d choice(s).\n", strings.Join(final.Visited(), " → "), final.TotalChoices)
			return nil
		},
	}
	cmd.Flags().String("name", "cli", "Playthrough name")
	cmd.Flags().StringSlice("choose", nil, "Choice ids to follow in order")
	cmd.Flags().String("project", "", "Persisted project id to play against")
	cmd.Flags().Bool("json", false, "Print the final playthrough state as JSON")
	cmd.Flags().Bool("plain", false, "Print scene text without markdown rendering")
	return cmd
}

// playProject runs play against the stored state of projectID, creating the
// project from the story on first use, and saves the result.
func (a *app) playProject(ctx context.Context, s *story.Story, projectID string, play func(*arbor.Project) error) error {
	mgr, closeStore, err := a.sessions()
	if err != nil {
		return err
	}
	defer closeStore()

	doc := s.Project()
	if _, err := mgr.LoadOrCreate(ctx, projectID, &doc); err != nil {
		return err
	}
	return mgr.Update(ctx, projectID, func(vm *variables.Manager) error {
		return play(arbor.Attach(s, vm, arbor.WithLogger(a.logger)))
	})
}

func (pl *player) play(name string) (domain.PlaythroughState, error) {
	state := pl.project.Start(name)
	if err := pl.showScene(state.CurrentSceneID); err != nil {
		return state, err
	}

	for {
		options, err := pl.project.Choices()
		if err != nil {
			return state, err
		}
		if len(options) == 0 {
			fmt.Fprintln(pl.out, "The End.")
			return state, nil
		}

		id, ok, err := pl.next(options)
		if err != nil {
			return state, err
		}
		if !ok {
			return state, nil
		}
		for _, o := range options {
			if o.ID == id && !o.Available && o.Redirect != "" {
				fmt.Fprintf(pl.out, "(%s is locked, taking %s)\n", id, o.Redirect)
			}
		}

		next, err := pl.project.Choose(id)
		if err != nil {
			if pl.strict {
				return state, err
			}
			fmt.Fprintf(pl.out, "Cannot choose %q: %v\n", id, err)
			continue
		}
		state = next
		if err := pl.showScene(state.CurrentSceneID); err != nil {
			return state, err
		}
	}
}

func (pl *player) showScene(id string) error {
	sc, ok := pl.project.Story().Scene(id)
	if !ok {
		return fmt.Errorf("unknown scene %q", id)
	}
	title := sc.Title
	if title == "" {
		title = sc.ID
	}
	text, err := pl.render("# " + title + "\n\n" + sc.Text)
	if err != nil {
		return err
	}
	fmt.Fprint(pl.out, text)
	return nil
}

func scriptSource(ids []string) choiceSource {
	return func([]arbor.ChoiceOption) (string, bool, error) {
		if len(ids) == 0 {
			return "", false, nil
		}
		id := ids[0]
		ids = ids[1:]
		return id, true, nil
	}
}

// promptSource lists the options and reads a number or choice id per line.
// The "> " prompt is only written when stdin is a terminal.
func promptSource(in io.Reader, out io.Writer, interactive bool) choiceSource {
	scanner := bufio.NewScanner(in)
	return func(options []arbor.ChoiceOption) (string, bool, error) {
		for i, o := range options {
			label := o.Text
			if label == "" {
				label = o.ID
			}
			switch {
			case o.Available:
				fmt.Fprintf(out, "  %d) %s\n", i+1, label)
			case o.Redirect != "":
				fmt.Fprintf(out, "  %d) %s (locked, falls back to %s)\n", i+1, label, o.Redirect)
			default:
				fmt.Fprintf(out, "  %d) %s (locked)\n", i+1, label)
			}
		}
		for {
			if interactive {
				fmt.Fprint(out, "> ")
			}
			if !scanner.Scan() {
				return "", false, scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if n, err := strconv.Atoi(line); err == nil {
				if n < 1 || n > len(options) {
					fmt.Fprintf(out, "Pick 1-%d.\n", len(options))
					continue
				}
				return options[n-1].ID, true, nil
			}
			return line, true, nil
		}
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
