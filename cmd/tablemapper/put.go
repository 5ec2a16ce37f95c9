package main

import (
	"context"
	"fmt"

	"github.com/cuemby/tablemapper/pkg/manifest"
	"github.com/cuemby/tablemapper/pkg/mapper"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Write a single item from a YAML file",
	RunE:  runPut,
}

func init() {
	putCmd.Flags().StringP("file", "f", "", "YAML file with schema: and item: (required)")
	putCmd.Flags().String("table", "", "table name (required)")
	_ = putCmd.MarkFlagRequired("file")
	_ = putCmd.MarkFlagRequired("table")
}

func runPut(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	table, _ := cmd.Flags().GetString("table")
	dbDir, _ := cmd.Root().PersistentFlags().GetString("db")

	m, err := manifest.Load(file)
	if err != nil {
		return err
	}
	if m.Item == nil {
		return fmt.Errorf("put: %s: missing item", file)
	}

	st, err := openStore(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := loadSchema(file, table, st)
	if err != nil {
		return err
	}

	item := &mapper.MapItem{ItemSchema: s, Table: table, Data: m.Item}
	native, err := newFacade(st).Put(context.Background(), item, mapper.ItemOptions{})
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	fmt.Printf("put %s into %s\n", native, table)
	return nil
}
