package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/focusorder/internal/heuristics"
	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/output"
	"github.com/mj1618/focusorder/internal/serialize"
)

var validateCmd = &cobra.Command{
	Use:   "validate <sequence.json>",
	Short: "Report problems in a focus order",
	Long: `Check a saved focus order for gaps in numbering, repeated stops, large
backward jumps and, with --tree, an empty order over a tree that has controls.
Findings are advisory; the exit status is zero unless the file is unreadable.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("tree", "", "Tree JSON the sequence was built from")
	validateCmd.Flags().String("platform", "web", "Platform used to serialize --tree")
}

type validateResult struct {
	OK     bool               `json:"ok"               yaml:"ok"`
	Issues []heuristics.Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	treePath, _ := cmd.Flags().GetString("tree")
	platformFlag, _ := cmd.Flags().GetString("platform")

	seq, err := readSequence(args[0])
	if err != nil {
		return err
	}

	var candidates []model.NodeSnapshot
	if treePath != "" {
		platform, err := model.ParsePlatform(platformFlag)
		if err != nil {
			return err
		}
		f, err := os.Open(treePath)
		if err != nil {
			return err
		}
		roots, err := host.DecodeNodes(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", treePath, err)
		}
		ser := serialize.New(serialize.Options{MaxDepth: cfg.Limits.MaxDepth, MaxNodes: cfg.Limits.MaxNodes}, logger)
		for _, r := range roots {
			snap, _ := ser.Serialize(r, platform)
			candidates = append(candidates, heuristics.ExtractCandidates(snap)...)
		}
	}

	issues := heuristics.Validate(seq.Items, candidates)
	return output.Print(validateResult{OK: len(issues) == 0, Issues: issues})
}
