package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"video-annotator/agents/annotator"
	"video-annotator/internal/models"
	"video-annotator/shared/annotation"
	"video-annotator/shared/config"
	"video-annotator/shared/export"
	"video-annotator/shared/monitoring"
	"video-annotator/shared/scheduler"

	"github.com/spf13/cobra"
)

// app is the loaded config plus an initialized agent.
type app struct {
	cfg     *config.Config
	agent   *annotator.Agent
	monitor *monitoring.Monitor
}

func loadApp(initialize bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	monitor := monitoring.NewMonitor()
	agent := annotator.NewAgent(cfg, monitor)
	if initialize {
		if err := agent.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize agent: %w", err)
		}
	}
	return &app{cfg: cfg, agent: agent, monitor: monitor}, nil
}

func (a *app) close() {
	if err := a.agent.Close(); err != nil {
		log.Printf("Warning: failed to close store: %v", err)
	}
}

func (a *app) collection(id string) (config.CollectionConfig, error) {
	col, ok := a.cfg.Collection(id)
	if !ok {
		return config.CollectionConfig{}, fmt.Errorf("unknown collection %q", id)
	}
	return col, nil
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Annotate new videos on the configured schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Fprintln(cmd.OutOrStdout(), "Starting scheduler...")
			return scheduler.New(a.cfg, a.agent, a.monitor).Start(cmd.Context())
		},
	}
}

func newOnceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Annotate new videos once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Fprintln(cmd.OutOrStdout(), "Running once...")
			return scheduler.New(a.cfg, a.agent, a.monitor).RunOnce(cmd.Context())
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <collection>",
		Short: "List annotated videos with their readiness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.agent.Items(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range items {
				set, err := a.agent.Annotations(cmd.Context(), args[0], key)
				if err != nil {
					fmt.Fprintf(out, "%-40s  error: %v\n", key, err)
					continue
				}
				fmt.Fprintf(out, "%-40s  %-12s  %.2f  %d segments\n",
					key, annotation.Classify(set.OverallConfidence), set.OverallConfidence, len(set.Segments))
			}
			return nil
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <collection> <video>",
		Short: "Print the segments of an annotated video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			set, err := a.agent.Annotations(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			writeSet(cmd.OutOrStdout(), args[1], set)
			return nil
		},
	}
}

func newLanesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lanes <collection> <video>",
		Short: "Print the timeline lane layout of a video's tags",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			set, err := a.agent.Annotations(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			writeLanes(cmd.OutOrStdout(), set)
			return nil
		},
	}
}

// editCommand builds a leaf under "edit" whose first two args are the
// collection and video.
func editCommand(use, short string, nargs int, apply func(cmd *cobra.Command, s *annotation.Session, args []string) (annotation.EditResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.agent.Edit(cmd.Context(), args[0], args[1], func(s *annotation.Session) (annotation.EditResult, error) {
				return apply(cmd, s, args[2:])
			})
			if err != nil {
				return err
			}
			writeEditResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newEditCommand() *cobra.Command {
	edit := &cobra.Command{
		Use:   "edit",
		Short: "Correct a video's annotations",
	}

	describe := editCommand("describe <collection> <video> <segment> <text>", "Replace a segment description", 4,
		func(cmd *cobra.Command, s *annotation.Session, args []string) (annotation.EditResult, error) {
			i, err := parseIndex(args[0])
			if err != nil {
				return annotation.EditResult{}, err
			}
			return s.EditSegment(cmd.Context(), i, annotation.SegmentEdit{Description: args[1]})
		})

	del := editCommand("delete <collection> <video> <segment>", "Delete a segment", 3,
		func(cmd *cobra.Command, s *annotation.Session, args []string) (annotation.EditResult, error) {
			i, err := parseIndex(args[0])
			if err != nil {
				return annotation.EditResult{}, err
			}
			return s.DeleteSegment(cmd.Context(), i)
		})

	tag := &cobra.Command{Use: "tag", Short: "Add or remove segment tags"}
	tag.AddCommand(
		editCommand("add <collection> <video> <segment> <object|action> <label>", "Add a tag to a segment", 5,
			func(cmd *cobra.Command, s *annotation.Session, args []string) (annotation.EditResult, error) {
				i, err := parseIndex(args[0])
				if err != nil {
					return annotation.EditResult{}, err
				}
				kind, err := parseKind(args[1])
				if err != nil {
					return annotation.EditResult{}, err
				}
				return s.AddTag(cmd.Context(), i, kind, args[2])
			}),
		editCommand("remove <collection> <video> <segment> <object|action> <tag-index>", "Remove a tag from a segment", 5,
			func(cmd *cobra.Command, s *annotation.Session, args []string) (annotation.EditResult, error) {
				i, err := parseIndex(args[0])
				if err != nil {
					return annotation.EditResult{}, err
				}
				kind, err := parseKind(args[1])
				if err != nil {
					return annotation.EditResult{}, err
				}
				t, err := parseIndex(args[2])
				if err != nil {
					return annotation.EditResult{}, err
				}
				return s.RemoveTag(cmd.Context(), i, kind, t)
			}),
	)

	edit.AddCommand(describe, del, tag)
	return edit
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <collection> <video>",
		Short: "Show the manual edits made to a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			events, err := a.agent.History(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range events {
				fmt.Fprintf(out, "%s  %-15s  segment %d  %s\n", e.At.Format("2006-01-02 15:04:05"), e.Operation, e.SegmentIndex, e.Detail)
			}
			return nil
		},
	}
}

func newLabelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels <collection> [add|remove <label>...]",
		Short: "Show or change a collection's label taxonomy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			col, err := a.collection(args[0])
			if err != nil {
				return err
			}

			var labels models.LabelSet
			switch {
			case len(args) == 1:
				labels, err = a.agent.Labels(cmd.Context(), col)
			case args[1] == "add":
				labels, err = a.agent.AddLabels(cmd.Context(), col, args[2:]...)
			case args[1] == "remove":
				labels, err = a.agent.RemoveLabels(cmd.Context(), col, args[2:]...)
			default:
				return fmt.Errorf("unknown labels action %q (want add or remove)", args[1])
			}
			if err != nil {
				return err
			}
			for _, l := range labels {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	return cmd
}

func newSuggestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <collection>",
		Short: "Ask the model for label candidates from the collection's first video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			classes, err := a.agent.SuggestClasses(cmd.Context(), col)
			if err != nil {
				return err
			}
			for _, c := range classes {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}

			if apply, _ := cmd.Flags().GetBool("apply"); apply {
				labels, err := a.agent.AddLabels(cmd.Context(), col, classes...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Collection %s now has %d labels\n", col.ID, len(labels))
			}
			return nil
		},
	}
	cmd.Flags().Bool("apply", false, "Add the suggestions to the collection's labels")
	return cmd
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <collection>",
		Short: "Export a collection's annotations as json, csv or coco",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")

			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.agent.Items(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries := make([]export.Entry, 0, len(items))
			for _, key := range items {
				set, err := a.agent.Annotations(cmd.Context(), args[0], key)
				if err != nil {
					log.Printf("Warning: skipping %s: %v", key, err)
					continue
				}
				entries = append(entries, export.Entry{VideoKey: key, Set: set})
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				defer f.Close()
				w = f
			}
			if err := export.Write(w, format, entries); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d videos to %s\n", len(entries), outPath)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "json", "Export format: json, csv or coco")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	return cmd
}

func newROICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "roi <collection>",
		Short: "Estimate time and cost saved against manual labeling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			est, err := a.agent.EstimateCollectionROI(cmd.Context(), col)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), est)
			return nil
		},
	}
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}

func parseKind(s string) (models.EntityKind, error) {
	switch strings.ToLower(s) {
	case "object", "objects":
		return models.EntityObject, nil
	case "action", "actions":
		return models.EntityAction, nil
	default:
		return "", fmt.Errorf("unknown tag kind %q (want object or action)", s)
	}
}
