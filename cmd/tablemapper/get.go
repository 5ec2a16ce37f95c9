package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/mapper"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a single item by key",
	RunE:  runGet,
}

func init() {
	getCmd.Flags().String("table", "", "table name (required)")
	getCmd.Flags().String("key", "", "comma-separated k=v key attributes (required)")
	getCmd.Flags().String("schema", "", "YAML file with the table's schema: map (required)")
	_ = getCmd.MarkFlagRequired("table")
	_ = getCmd.MarkFlagRequired("key")
	_ = getCmd.MarkFlagRequired("schema")
}

func runGet(cmd *cobra.Command, args []string) error {
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
	native, err := newFacade(st).Get(context.Background(), item, mapper.ItemOptions{})
	var notFound *mapererr.ItemNotFound
	if errors.As(err, &notFound) {
		fmt.Printf("not found: %s\n", table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	fmt.Printf("%s\n", native)
	return nil
}
