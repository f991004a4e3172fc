package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/monochrome/capture"
	"github.com/justapithecus/monochrome/cli/render"
	"github.com/justapithecus/monochrome/cli/tui"
	"github.com/justapithecus/monochrome/iox"
	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/transport"
)

// CaptureCommand returns the capture command with subcommands that read
// back recorded sessions.
func CaptureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Inspect and replay captured sessions",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List captured sessions, newest first",
				Flags:  ReadOnlyFlags(),
				Action: captureListAction,
			},
			{
				Name:      "inspect",
				Usage:     "Show one captured session",
				ArgsUsage: "<session-id>",
				Flags:     ReadOnlyFlags(),
				Action:    captureInspectAction,
			},
			{
				Name:   "stats",
				Usage:  "Totals across captured sessions",
				Flags:  ReadOnlyFlags(),
				Action: captureStatsAction,
			},
			{
				Name:      "replay",
				Usage:     "Send the frames of a captured session to the viewer again",
				ArgsUsage: "<session-id>",
				Action:    captureReplayAction,
			},
		},
	}
}

// SessionView is the rendered form of a captured session.
type SessionView struct {
	ID           string           `json:"id"`
	Operation    string           `json:"operation"`
	Status       string           `json:"status"`
	Transport    string           `json:"transport"`
	Address      string           `json:"address"`
	StartedAt    time.Time        `json:"started_at"`
	EndedAt      time.Time        `json:"ended_at"`
	DurationMs   int64            `json:"duration_ms"`
	Frames       int64            `json:"frames"`
	Bytes        int64            `json:"bytes"`
	FramesByKind map[string]int64 `json:"frames_by_kind,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func newSessionView(s capture.Session) SessionView {
	return SessionView{
		ID:           s.ID,
		Operation:    s.Operation,
		Status:       s.Status(),
		Transport:    s.Transport,
		Address:      s.Address,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		DurationMs:   s.Duration().Milliseconds(),
		Frames:       s.Frames,
		Bytes:        s.Bytes,
		FramesByKind: s.FramesByKind,
		Error:        s.Error,
	}
}

// StatsView is the rendered form of capture totals.
type StatsView struct {
	Sessions     int64            `json:"sessions"`
	Failed       int64            `json:"failed"`
	Frames       int64            `json:"frames"`
	Bytes        int64            `json:"bytes"`
	FramesByKind map[string]int64 `json:"frames_by_kind"`
}

func captureListAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for capture list", exitError)
	}
	r, reader, err := readSetup(c)
	if err != nil {
		return err
	}
	sessions, err := reader.Sessions(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	views := make([]SessionView, len(sessions))
	for i, s := range sessions {
		views[i] = newSessionView(s)
	}
	return r.Render(views)
}

func captureInspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("session-id required", exitError)
	}
	r, reader, err := readSetup(c)
	if err != nil {
		return err
	}
	s, err := reader.Session(c.Context, c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectSession, &s)
	}
	return r.Render(newSessionView(s))
}

func captureStatsAction(c *cli.Context) error {
	r, reader, err := readSetup(c)
	if err != nil {
		return err
	}
	st, err := reader.Stats(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsCaptures, &st)
	}
	return r.Render(StatsView(st))
}

func readSetup(c *cli.Context) (*render.Renderer, *capture.Reader, error) {
	r, err := render.NewRenderer(c)
	if err != nil {
		return nil, nil, err
	}
	e, err := newEnv(c)
	if err != nil {
		return nil, nil, err
	}
	reader, err := e.reader(c.Context)
	if err != nil {
		return nil, nil, err
	}
	return r, reader, nil
}

func captureReplayAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("session-id required", exitError)
	}
	id := c.Args().First()
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	reader, err := e.reader(c.Context)
	if err != nil {
		return err
	}
	frames, err := reader.Frames(c.Context, id)
	if err != nil {
		code := exitError
		if errors.Is(err, capture.ErrSessionNotFound) || errors.Is(err, capture.ErrNotFound) {
			code = exitValidation
		}
		return cli.Exit(err.Error(), code)
	}

	return e.run(c, "replay", id, func(ctx context.Context, tc transport.Config) error {
		ch, err := transport.Dial(ctx, tc)
		if err != nil {
			return err
		}
		defer iox.DiscardClose(ch)

		n, err := capture.Replay(ctx, frames, ch)
		for _, f := range frames[:n] {
			e.collector.RecordFrame(f.Kind, f.Size, isChunkKind(f.Kind))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "replayed %d frames of %s\n", n, id)
		return nil
	})
}

func isChunkKind(name string) bool {
	for _, k := range message.Kinds() {
		if k.String() == name {
			return k.IsChunk()
		}
	}
	return false
}
