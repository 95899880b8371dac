package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/focusorder/internal/merge"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/output"
	"github.com/mj1618/focusorder/internal/store"
)

var curateCmd = &cobra.Command{
	Use:   "curate <frame-id>",
	Short: "Edit a saved focus order",
	Long: `Reorder, relabel or change the role of stops in a saved focus order.

The edited sequence is accepted as a whole: every stop becomes a manual entry
and later annotate runs keep it. Stops cannot be removed here because the next
run would add them back.

Examples:
  focusorder curate 1:1 --store specs.db --move 1:4=1
  focusorder curate 1:1 --store specs.db --label "1:2=Email address" --role 1:7=tab`,
	Args: cobra.ExactArgs(1),
	RunE: runCurate,
}

func init() {
	rootCmd.AddCommand(curateCmd)
	curateCmd.Flags().String("store", "", "SQLite file for saved sequences (default $FOCUSORDER_STORE)")
	curateCmd.Flags().StringArray("move", nil, "Move a stop: id=position (repeatable)")
	curateCmd.Flags().StringArray("role", nil, "Set a stop's role: id=role (repeatable)")
	curateCmd.Flags().StringArray("label", nil, "Set a stop's label: id=text (repeatable)")
}

type curateResult struct {
	Sequence model.FocusSequence    `json:"sequence"          yaml:"sequence"`
	Changes  []model.SequenceChange `json:"changes,omitempty" yaml:"changes,omitempty"`
}

func runCurate(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")
	moveFlags, _ := cmd.Flags().GetStringArray("move")
	roleFlags, _ := cmd.Flags().GetStringArray("role")
	labelFlags, _ := cmd.Flags().GetStringArray("label")

	var edit merge.Edit
	var err error
	if edit.Moves, err = parseMoves(moveFlags); err != nil {
		return err
	}
	if edit.Roles, err = parseRoles(roleFlags); err != nil {
		return err
	}
	if edit.Labels, err = parseAssignments("label", labelFlags); err != nil {
		return err
	}

	sq, err := openStore(storePath)
	if err != nil {
		return err
	}
	if sq == nil {
		return errors.New("curate needs --store or FOCUSORDER_STORE")
	}
	defer func() { _ = sq.Close() }()

	res, err := curate(cmd.Context(), sq, args[0], edit)
	if err != nil {
		return err
	}
	return output.Print(res)
}

func curate(ctx context.Context, st store.Store, frameID string, edit merge.Edit) (curateResult, error) {
	seq, err := st.Get(ctx, frameID)
	if errors.Is(err, store.ErrNotFound) {
		return curateResult{}, fmt.Errorf("no saved sequence for frame %s; run annotate first", frameID)
	}
	if err != nil {
		return curateResult{}, err
	}

	items, err := merge.Curate(seq.Items, edit)
	if err != nil {
		return curateResult{}, err
	}
	changes := model.DiffSequences(seq.Items, items)
	seq.Items = items
	saved, err := st.Put(ctx, seq)
	if err != nil {
		return curateResult{}, fmt.Errorf("save sequence: %w", err)
	}
	return curateResult{Sequence: saved, Changes: changes}, nil
}
