package main

import (
	"context"
	"fmt"

	"github.com/cuemby/tablemapper/pkg/batch"
	"github.com/cuemby/tablemapper/pkg/manifest"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/spf13/cobra"
)

var batchLoadCmd = &cobra.Command{
	Use:   "batch-load",
	Short: "Write every item in a manifest's items: list via the batch engine",
	RunE:  runBatchLoad,
}

func init() {
	batchLoadCmd.Flags().StringP("file", "f", "", "manifest YAML file (required)")
	_ = batchLoadCmd.MarkFlagRequired("file")
}

func runBatchLoad(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	dbDir, _ := cmd.Root().PersistentFlags().GetString("db")

	man, err := manifest.Load(file)
	if err != nil {
		return err
	}
	if len(man.Items) == 0 {
		return fmt.Errorf("batch-load: %s: no items", file)
	}

	st, err := openStore(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := man.Schema()
	if err != nil {
		return err
	}
	st.DeclareTable(man.Name, schema.GetKeyProperties(s))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan batch.WriteRequest)
	out, errc := batch.RunWrites(ctx, st, in, batch.Options{})

	go func() {
		defer close(in)
		for _, item := range man.Items {
			in <- batch.WriteRequest{
				Table:  man.Name,
				Schema: s,
				Op:     batch.Put,
				Source: marshal.FromMap(item),
			}
		}
	}()

	written := 0
	for out != nil || errc != nil {
		select {
		case res, ok := <-out:
			if !ok {
				out = nil
				continue
			}
			written++
			_ = res
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			if err != nil {
				return fmt.Errorf("batch-load: %w", err)
			}
		}
	}

	fmt.Printf("wrote %d item(s) into %s\n", written, man.Name)
	return nil
}
