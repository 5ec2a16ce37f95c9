package main

import (
	"context"
	"fmt"

	"github.com/cuemby/tablemapper/pkg/mapper"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a single item by key",
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().String("table", "", "table name (required)")
	deleteCmd.Flags().String("key", "", "comma-separated k=v key attributes (required)")
	deleteCmd.Flags().String("schema", "", "YAML file with the table's schema: map (required)")
	_ = deleteCmd.MarkFlagRequired("table")
	_ = deleteCmd.MarkFlagRequired("key")
	_ = deleteCmd.MarkFlagRequired("schema")
}

func runDelete(cmd *cobra.Command, args []string) error {
	table, _ := cmd.Flags().GetString("table")
	keyFlag, _ := cmd.Flags().GetString("key")
	schemaFile, _ := cmd.Flags().GetString("schema")
	dbDir, _ := cmd.Root().PersistentFlags().GetString("db")

	key, err := parseKey(keyFlag)
	if err != nil {
		return err
	}

	st, err := openStore(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := loadSchema(schemaFile, table, st)
	if err != nil {
		return err
	}

	item := &mapper.MapItem{ItemSchema: s, Table: table, Data: key}
	previous, err := newFacade(st).Delete(context.Background(), item, mapper.ItemOptions{})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if previous == nil {
		fmt.Printf("nothing to delete in %s\n", table)
		return nil
	}
	fmt.Printf("deleted %s from %s\n", previous, table)
	return nil
}
