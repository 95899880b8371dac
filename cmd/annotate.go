package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/focusorder/internal/client"
	"github.com/mj1618/focusorder/internal/host"
	"github.com/mj1618/focusorder/internal/merge"
	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/output"
	"github.com/mj1618/focusorder/internal/serialize"
	"github.com/mj1618/focusorder/internal/store"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <tree.json>",
	Short: "Propose a focus order for the frames in a tree file",
	Long: `Serialize every top-level frame in the file and propose a focus order.

Without --server the order is computed locally. With --server the service is
asked first and the local order is used if it fails. Manual entries saved in
the store (or given with --manual) are carried forward and the result is
saved back.

Examples:
  focusorder annotate login.json
  focusorder annotate login.json --server http://localhost:8787 --image login.png
  focusorder annotate login.json --store specs.db --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().String("platform", "web", "Target platform: web, native")
	annotateCmd.Flags().String("server", "", "Annotation service URL")
	annotateCmd.Flags().String("manual", "", "Saved sequence JSON whose manual entries are carried forward")
	annotateCmd.Flags().String("store", "", "SQLite file for saved sequences (default $FOCUSORDER_STORE)")
	annotateCmd.Flags().String("image", "", "PNG, JPEG or WebP render of the first frame")
	annotateCmd.Flags().String("prompt", "", "Free-text hint for the model")
	annotateCmd.Flags().Duration("timeout", client.DefaultTimeout, "Service call timeout")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	platformFlag, _ := cmd.Flags().GetString("platform")
	serverURL, _ := cmd.Flags().GetString("server")
	manualPath, _ := cmd.Flags().GetString("manual")
	storePath, _ := cmd.Flags().GetString("store")
	imagePath, _ := cmd.Flags().GetString("image")
	prompt, _ := cmd.Flags().GetString("prompt")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	platform, err := model.ParsePlatform(platformFlag)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	roots, err := host.DecodeNodes(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	frameIDs := make([]string, len(roots))
	for i, r := range roots {
		frameIDs[i] = r.ID()
	}

	provider := &host.Provider{Source: host.NewMemorySource(roots...)}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return err
		}
		provider.Exporter = host.StaticExporter{Data: data, MIME: mimeFromPath(imagePath)}
	}

	ctx := cmd.Context()
	var st store.Store
	sq, err := openStore(storePath)
	if err != nil {
		return err
	}
	if sq != nil {
		defer func() { _ = sq.Close() }()
		st = sq
	}
	if manualPath != "" {
		if st, err = seedManual(ctx, st, manualPath, frameIDs, platform); err != nil {
			return err
		}
	}

	var c *client.Client
	if serverURL != "" {
		c = client.New(serverURL, timeout)
		defer c.Close()
	}

	a := client.NewAnnotator(client.Config{
		Provider: provider,
		Client:   c,
		Store:    st,
		Guard:    client.NewGuard(),
		Serialize: serialize.Options{
			MaxDepth: cfg.Limits.MaxDepth,
			MaxNodes: cfg.Limits.MaxNodes,
		},
		Logger: logger,
	})
	results, err := a.Run(ctx, frameIDs, client.RunOptions{
		Platform:    platform,
		Prompt:      prompt,
		Image:       imagePath != "",
		SelectionID: args[0],
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		if len(r.Dropped) > 0 {
			logger.Info("manual entries dropped", zap.String("frame", r.Sequence.FrameID), zap.Strings("ids", r.Dropped))
		}
	}
	if len(results) == 1 {
		return output.Print(results[0])
	}
	return output.Print(results)
}

// seedManual stores the manual entries of a sequence file so the run picks
// them up. Items without a source count as manual. Entries from the file win
// over manual entries already saved for the frame. Without a durable store
// an in-memory one is used.
func seedManual(ctx context.Context, st store.Store, path string, frameIDs []string, platform model.Platform) (store.Store, error) {
	seq, err := readSequence(path)
	if err != nil {
		return nil, err
	}
	if seq.FrameID == "" {
		if len(frameIDs) != 1 {
			return nil, fmt.Errorf("%s has no frameId and the tree has %d frames", path, len(frameIDs))
		}
		seq.FrameID = frameIDs[0]
	}
	if seq.Platform == "" {
		seq.Platform = platform
	}
	for i := range seq.Items {
		if seq.Items[i].Source == "" {
			seq.Items[i].Source = model.SourceManual
		}
	}
	manual := merge.Manual(seq.Items)
	if st == nil {
		st = store.NewMemory()
	}
	if existing, err := st.Get(ctx, seq.FrameID); err == nil {
		manual = append(manual, merge.Manual(existing.Items)...)
	}
	seq.Items = merge.Merge(nil, nil, manual)
	if _, err := st.Put(ctx, seq); err != nil {
		return nil, fmt.Errorf("seed manual entries: %w", err)
	}
	return st, nil
}
