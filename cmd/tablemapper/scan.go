package main

import (
	"context"
	"fmt"

	"github.com/cuemby/tablemapper/pkg/mapper"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every item in a table",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().String("table", "", "table name (required)")
	scanCmd.Flags().String("schema", "", "YAML file with the table's schema: map (required)")
	scanCmd.Flags().Int("segments", 1, "number of parallel scan segments")
	_ = scanCmd.MarkFlagRequired("table")
	_ = scanCmd.MarkFlagRequired("schema")
}

func runScan(cmd *cobra.Command, args []string) error {
	table, _ := cmd.Flags().GetString("table")
	schemaFile, _ := cmd.Flags().GetString("schema")
	segments, _ := cmd.Flags().GetInt("segments")
	dbDir, _ := cmd.Root().PersistentFlags().GetString("db")

	st, err := openStore(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := loadSchema(schemaFile, table, st)
	if err != nil {
		return err
	}

	ctx := context.Background()
	m := newFacade(st)

	if segments <= 1 {
		it, err := m.Scan(mapper.ScanInput{Table: table, Schema: s})
		if err != nil {
			return err
		}
		for {
			item, ok, err := it.Next(ctx)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			if !ok {
				break
			}
			fmt.Printf("%s\n", item)
		}
		return nil
	}

	out, errc, _, err := m.ParallelScan(ctx, mapper.ScanInput{Table: table, Schema: s}, segments, nil)
	if err != nil {
		return err
	}
	for out != nil || errc != nil {
		select {
		case res, ok := <-out:
			if !ok {
				out = nil
				continue
			}
			fmt.Printf("[segment %d] %s\n", res.Segment, res.Item)
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
		}
	}
	return nil
}
