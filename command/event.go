package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sentrytypes/sentrytypes/client"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/protocol/lenient"
	"github.com/sentrytypes/sentrytypes/protocol/meta"
	"github.com/sentrytypes/sentrytypes/protocol/normalize"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
	"github.com/urfave/cli/v2"
)

var EventCmd = &cli.Command{
	Name:  "event",
	Usage: "Check, send and inspect events",
	Subcommands: []*cli.Command{
		eventCheckCmd,
		eventSendCmd,
		eventListCmd,
		eventGetCmd,
		eventPayloadCmd,
		eventDeleteCmd,
		eventPruneCmd,
	},
}

var eventCheckCmd = &cli.Command{
	Name:      "check",
	Usage:     "Decode an event payload and show what the daemon would store",
	ArgsUsage: "<file | ->",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "normalize",
			Usage: "Normalize the event after decoding it",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "meta-only",
			Usage: "Only print the metadata of the event",
		},
	},
	Action: eventCheckAction,
}

var eventSendCmd = &cli.Command{
	Name:      "send",
	Usage:     "Send an event payload, or a message event, to a store endpoint",
	ArgsUsage: "[<file | ->]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "dsn",
			Usage:    "DSN of the project to send to",
			EnvVars:  []string{"SENTRY_DSN"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "message",
			Usage:   "Send an event with this message instead of reading a payload",
			Aliases: []string{"m"},
		},
		&cli.StringFlag{
			Name:  "level",
			Usage: "Level of the message event",
			Value: string(v7.LevelError),
		},
		&cli.BoolFlag{
			Name:  "gzip",
			Usage: "Compress the request body",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "Number of times to retry sending",
			Value: 4,
		},
	},
	Action: eventSendAction,
}

var eventListCmd = &cli.Command{
	Name:  "list",
	Usage: "List the newest stored events of a project",
	Flags: []cli.Flag{
		adminHostFlag,
		projectFlag,
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of events to list",
			Value: 20,
		},
	},
	Action: eventListAction,
}

var eventGetCmd = &cli.Command{
	Name:      "get",
	Usage:     "Show a stored event",
	ArgsUsage: "<event-id>",
	Flags:     []cli.Flag{adminHostFlag, projectFlag},
	Action:    eventGetAction,
}

var eventPayloadCmd = &cli.Command{
	Name:      "payload",
	Usage:     "Print the archived raw payload of an event",
	ArgsUsage: "<event-id>",
	Flags:     []cli.Flag{adminHostFlag, projectFlag},
	Action:    eventPayloadAction,
}

var eventDeleteCmd = &cli.Command{
	Name:      "delete",
	Usage:     "Delete a stored event and its archived payload",
	ArgsUsage: "<event-id>",
	Flags:     []cli.Flag{adminHostFlag, projectFlag},
	Action:    eventDeleteAction,
}

var eventPruneCmd = &cli.Command{
	Name:  "prune",
	Usage: "Delete events received longer ago than the retention period",
	Flags: []cli.Flag{
		adminHostFlag,
		&cli.DurationFlag{
			Name:     "retention",
			Usage:    "Age of the oldest events to keep, such as 720h",
			Required: true,
		},
	},
	Action: eventPruneAction,
}

// checkResult is printed by event check.
type checkResult struct {
	Event      *v7.Event      `json:"event,omitempty"`
	Meta       meta.EventMeta `json:"meta,omitempty"`
	ErrorCount int            `json:"errors"`
}

func eventCheckAction(cctx *cli.Context) error {
	data, err := readPayloadArg(cctx)
	if err != nil {
		return err
	}

	var ev v7.Event
	em, err := lenient.Decode(data, &ev)
	if err != nil {
		return err
	}
	if cctx.Bool("normalize") {
		// Use the limits of the local config when there is one.
		ingestCfg := config.NewIngest()
		if cfg, err := config.Load(""); err == nil {
			ingestCfg = cfg.Ingest
		}
		normalize.Normalize(&ev, em, normalize.Options{
			MaxMessageLength: ingestCfg.MaxMessageLength,
			MaxBreadcrumbs:   ingestCfg.MaxBreadcrumbs,
			AllowedClockSkew: time.Duration(ingestCfg.AllowedClockSkew),
		})
	}

	result := checkResult{
		Meta:       em,
		ErrorCount: em.ErrorCount(),
	}
	if !cctx.Bool("meta-only") {
		result.Event = &ev
	}
	if err = printJSON(cctx.App.Writer, result); err != nil {
		return err
	}
	if result.ErrorCount != 0 {
		return cli.Exit(fmt.Sprintf("event has %d errors", result.ErrorCount), 1)
	}
	return nil
}

func eventSendAction(cctx *cli.Context) error {
	cl, err := client.New(cctx.String("dsn"),
		client.WithGzip(cctx.Bool("gzip")),
		client.WithRetries(cctx.Int("retries")),
		client.WithUserAgent("sentrytypes-cli/"+cctx.App.Version))
	if err != nil {
		return err
	}

	var id v7.EventID
	if msg := cctx.String("message"); msg != "" {
		level, err := v7.ParseLevel(cctx.String("level"))
		if err != nil {
			return err
		}
		ev := v7.NewEvent()
		ev.Message = msg
		ev.Level = level
		ev.Sdk = &v7.ClientSdkInfo{Name: "sentrytypes.cli", Version: cctx.App.Version}
		id, err = cl.SendEvent(cctx.Context, ev)
	} else {
		var data []byte
		data, err = readPayloadArg(cctx)
		if err != nil {
			return err
		}
		id, err = cl.Send(cctx.Context, data)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, id)
	return nil
}

func eventListAction(cctx *cli.Context) error {
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	events, err := cl.ListEvents(cctx.Context, dsn.ProjectID(cctx.Uint64("project")), cctx.Int("limit"))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(cctx.App.Writer, "No events")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(cctx.App.Writer, "%s  %s  [%s] %s\n", ev.EventID,
			ev.Received.Local().Format("2006-01-02 15:04:05"), eventLevel(&ev.Event), ev.Title)
	}
	return nil
}

func eventGetAction(cctx *cli.Context) error {
	eventID, err := eventIDArg(cctx)
	if err != nil {
		return err
	}
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	ev, err := cl.GetEvent(cctx.Context, dsn.ProjectID(cctx.Uint64("project")), eventID)
	if err != nil {
		return err
	}
	return printJSON(cctx.App.Writer, ev)
}

func eventPayloadAction(cctx *cli.Context) error {
	eventID, err := eventIDArg(cctx)
	if err != nil {
		return err
	}
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	data, err := cl.GetPayload(cctx.Context, dsn.ProjectID(cctx.Uint64("project")), eventID)
	if err != nil {
		return err
	}
	_, err = cctx.App.Writer.Write(data)
	return err
}

func eventDeleteAction(cctx *cli.Context) error {
	eventID, err := eventIDArg(cctx)
	if err != nil {
		return err
	}
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	if err = cl.DeleteEvent(cctx.Context, dsn.ProjectID(cctx.Uint64("project")), eventID); err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, "Deleted event", eventID)
	return nil
}

func eventPruneAction(cctx *cli.Context) error {
	cl, err := adminClient(cctx)
	if err != nil {
		return err
	}
	deleted, err := cl.Prune(cctx.Context, cctx.Duration("retention"))
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, "Deleted", deleted, "events")
	return nil
}

func eventLevel(ev *v7.Event) v7.Level {
	if ev.Level == "" {
		return v7.LevelError
	}
	return ev.Level
}

func eventIDArg(cctx *cli.Context) (v7.EventID, error) {
	if cctx.Args().Len() != 1 {
		return v7.NilEventID, errors.New("exactly one event ID must be given")
	}
	return v7.ParseEventID(cctx.Args().First())
}

// readPayloadArg reads the file named by the first argument, or stdin if the
// argument is "-" or missing.
func readPayloadArg(cctx *cli.Context) ([]byte, error) {
	name := cctx.Args().First()
	if name == "" || name == "-" {
		return io.ReadAll(cctx.App.Reader)
	}
	return os.ReadFile(name)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
