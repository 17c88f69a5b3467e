// Command coredb is an operator CLI around the storage engine: it opens
// or recovers a database directory and exercises the catalog and table
// scan layers end-to-end. It is tooling around the engine, not a query
// interface.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"coredb/internal/app/config"
	"coredb/internal/app/engine"
	"coredb/internal/app/record"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "coredb",
		Short: "operator CLI for the storage engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to an engine ini config file")

	root.AddCommand(
		initCmd(),
		recoverCmd(),
		createTableCmd(),
		scanCmd(),
		statsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openEngine() (*engine.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return engine.Open(cfg)
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "open or create the database directory, recovering it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()
			if eng.WasNew() {
				fmt.Println("created new database")
			} else {
				fmt.Println("recovered existing database")
			}
			return nil
		},
	}
}

func recoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "run a dedicated recovery transaction and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			recoveryTx, err := eng.NewTx()
			if err != nil {
				return err
			}
			if err := recoveryTx.Recover(); err != nil {
				return err
			}
			return recoveryTx.Commit()
		},
	}
}

func createTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createtable NAME field:type:len [field:type:len ...]",
		Short: "create a table with the given schema",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tablename := args[0]
			schema, err := parseSchema(args[1:])
			if err != nil {
				return err
			}

			eng, err := openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			transaction, err := eng.NewTx()
			if err != nil {
				return err
			}
			if err := eng.TableManager().CreateTable(tablename, schema, transaction); err != nil {
				return err
			}
			return transaction.Commit()
		},
	}
}

func parseSchema(specs []string) (*record.Schema, error) {
	schema := record.NewSchema()
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid field spec %q, want name:type[:len]", spec)
		}
		name, kind := parts[0], parts[1]

		switch kind {
		case "int":
			schema.AddIntField(name)
		case "string":
			if len(parts) != 3 {
				return nil, fmt.Errorf("string field %q requires a length, e.g. %s:string:20", name, name)
			}
			length, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid length for field %q: %w", name, err)
			}
			schema.AddStringField(name, length)
		default:
			return nil, fmt.Errorf("unknown field type %q for field %q, want int or string", kind, name)
		}
	}
	return schema, nil
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan NAME",
		Short: "print every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tablename := args[0]

			eng, err := openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			transaction, err := eng.NewTx()
			if err != nil {
				return err
			}

			layout, err := eng.TableManager().GetLayout(tablename, transaction)
			if err != nil {
				return err
			}

			ts, err := record.NewTableScan(transaction, tablename, layout)
			if err != nil {
				return err
			}
			defer ts.Close()

			for {
				hasNext, err := ts.Next()
				if err != nil {
					return err
				}
				if !hasNext {
					break
				}

				var fields []string
				for _, fieldname := range layout.Schema().Fields() {
					if layout.Schema().DataType(fieldname) == record.INTEGER {
						v, err := ts.GetInt(fieldname)
						if err != nil {
							return err
						}
						fields = append(fields, fmt.Sprintf("%s=%d", fieldname, v))
					} else {
						v, err := ts.GetString(fieldname)
						if err != nil {
							return err
						}
						fields = append(fields, fmt.Sprintf("%s=%q", fieldname, v))
					}
				}
				fmt.Println(strings.Join(fields, " "))
			}

			return transaction.Commit()
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print buffer pool and log manager stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			fmt.Printf("buffers available: %d\n", eng.BufferManager().Available())
			fmt.Printf("log latest lsn:     %d\n", eng.LogManager().LatestLSN())
			fmt.Printf("log last saved lsn: %d\n", eng.LogManager().LastSavedLSN())
			return nil
		},
	}
}
