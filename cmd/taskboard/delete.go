package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/graph"
)

var deleteAs string

// deleteOutput is what `taskboard delete` prints on success.
type deleteOutput struct {
	Root       graph.Ref        `json:"root"`
	Removed    map[string]int64 `json:"removed"`
	Nullified  map[string]int64 `json:"nullified,omitempty"`
	Total      int64            `json:"total"`
	DurationMS int64            `json:"duration_ms"`
}

func newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a project or task with everything that depends on it",
	}

	cmd.PersistentFlags().StringVar(&deleteAs, "as", "", "id of the user performing the deletion")
	_ = cmd.MarkPersistentFlagRequired("as")

	for _, root := range []graph.EntityType{graph.Project, graph.Task} {
		root := root
		cmd.AddCommand(&cobra.Command{
			Use:   fmt.Sprintf("%s <id>", root),
			Short: fmt.Sprintf("Delete a %s", root),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDelete(cmd.Context(), cmd.OutOrStdout(), root, args[0], deleteAs)
			},
		})
	}

	return cmd
}

func runDelete(ctx context.Context, out io.Writer, root graph.EntityType, rawID, rawRequester string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid %s id %q: %w", root, rawID, err)
	}

	requester, err := uuid.Parse(rawRequester)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", rawRequester, err)
	}

	cfg, conn, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	engine, _ := newEngine(conn, cfg, prometheus.NewRegistry())

	return deleteAndPrint(ctx, out, engine, root, id, requester)
}

func deleteAndPrint(ctx context.Context, out io.Writer, engine *cascade.Engine, root graph.EntityType, id, requester uuid.UUID) error {
	summary, err := engine.Delete(ctx, root, id, requester)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(deleteOutput{
		Root:       summary.Root,
		Removed:    summary.RemovedCounts(),
		Nullified:  summary.NullifiedCounts(),
		Total:      summary.Total(),
		DurationMS: summary.Duration.Milliseconds(),
	})
}
