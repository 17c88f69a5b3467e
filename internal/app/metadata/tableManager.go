package metadata

import (
	"github.com/pkg/errors"

	"coredb/internal/app/record"
	"coredb/internal/app/tx"
)

// maxNameLength bounds table and field names stored in the system catalog.
const maxNameLength = 20

// TableManager bootstraps and serves the system catalog: table_catalog
// records one row per table, field_catalog one row per field, and every
// other table's Layout is derived by scanning them (spec.md §6).
type TableManager struct {
	tcatLayout *record.Layout
	fcatLayout *record.Layout
}

// NewTableManager opens the catalog, creating its two tables first if
// isNew is true.
func NewTableManager(isNew bool, transaction *tx.Transaction) (*TableManager, error) {
	tcatSchema := record.NewSchema()
	tcatSchema.AddStringField("table_name", maxNameLength)
	tcatSchema.AddIntField("slot_size")
	tcatLayout := record.NewLayout(tcatSchema)

	fcatSchema := record.NewSchema()
	fcatSchema.AddStringField("table_name", maxNameLength)
	fcatSchema.AddStringField("field_name", maxNameLength)
	fcatSchema.AddIntField("field_type")
	fcatSchema.AddIntField("field_byte_length")
	fcatSchema.AddIntField("field_byte_offset")
	fcatLayout := record.NewLayout(fcatSchema)

	tm := &TableManager{
		tcatLayout: tcatLayout,
		fcatLayout: fcatLayout,
	}

	if isNew {
		if err := tm.CreateTable("table_catalog", tcatSchema, transaction); err != nil {
			return nil, errors.Wrap(err, "bootstrap table_catalog")
		}
		if err := tm.CreateTable("field_catalog", fcatSchema, transaction); err != nil {
			return nil, errors.Wrap(err, "bootstrap field_catalog")
		}
	}

	return tm, nil
}

// CreateTable derives tablename's layout from schema and records it, and
// every one of its fields, in the catalog.
func (tm *TableManager) CreateTable(tablename string, schema *record.Schema, transaction *tx.Transaction) error {
	layout := record.NewLayout(schema)

	tcat, err := record.NewTableScan(transaction, "table_catalog", tm.tcatLayout)
	if err != nil {
		return errors.Wrap(err, "open table_catalog")
	}
	defer tcat.Close()

	if err := tcat.Insert(); err != nil {
		return errors.Wrapf(err, "insert table_catalog row for %s", tablename)
	}
	if err := tcat.SetString("table_name", tablename); err != nil {
		return err
	}
	if err := tcat.SetInt("slot_size", layout.SlotSize()); err != nil {
		return err
	}

	fcat, err := record.NewTableScan(transaction, "field_catalog", tm.fcatLayout)
	if err != nil {
		return errors.Wrap(err, "open field_catalog")
	}
	defer fcat.Close()

	for _, fieldname := range schema.Fields() {
		if err := fcat.Insert(); err != nil {
			return errors.Wrapf(err, "insert field_catalog row for %s.%s", tablename, fieldname)
		}
		if err := fcat.SetString("table_name", tablename); err != nil {
			return err
		}
		if err := fcat.SetString("field_name", fieldname); err != nil {
			return err
		}
		if err := fcat.SetInt("field_type", int(schema.DataType(fieldname))); err != nil {
			return err
		}
		if err := fcat.SetInt("field_byte_length", schema.Length(fieldname)); err != nil {
			return err
		}
		if err := fcat.SetInt("field_byte_offset", layout.Offset(fieldname)); err != nil {
			return err
		}
	}

	return nil
}

// GetLayout reconstructs tablename's Layout by scanning the catalog.
func (tm *TableManager) GetLayout(tablename string, transaction *tx.Transaction) (*record.Layout, error) {
	size := -1

	tcat, err := record.NewTableScan(transaction, "table_catalog", tm.tcatLayout)
	if err != nil {
		return nil, errors.Wrap(err, "open table_catalog")
	}
	for {
		hasNext, err := tcat.Next()
		if err != nil {
			tcat.Close()
			return nil, err
		}
		if !hasNext {
			break
		}
		name, err := tcat.GetString("table_name")
		if err != nil {
			tcat.Close()
			return nil, err
		}
		if name == tablename {
			size, err = tcat.GetInt("slot_size")
			if err != nil {
				tcat.Close()
				return nil, err
			}
			break
		}
	}
	tcat.Close()

	if size < 0 {
		return nil, errors.Errorf("unknown table %s", tablename)
	}

	schema := record.NewSchema()
	offsets := make(map[string]int)

	fcat, err := record.NewTableScan(transaction, "field_catalog", tm.fcatLayout)
	if err != nil {
		return nil, errors.Wrap(err, "open field_catalog")
	}
	defer fcat.Close()

	for {
		hasNext, err := fcat.Next()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}

		name, err := fcat.GetString("table_name")
		if err != nil {
			return nil, err
		}
		if name != tablename {
			continue
		}

		fieldname, err := fcat.GetString("field_name")
		if err != nil {
			return nil, err
		}
		fieldType, err := fcat.GetInt("field_type")
		if err != nil {
			return nil, err
		}
		fieldLen, err := fcat.GetInt("field_byte_length")
		if err != nil {
			return nil, err
		}
		offset, err := fcat.GetInt("field_byte_offset")
		if err != nil {
			return nil, err
		}

		offsets[fieldname] = offset
		schema.AddField(fieldname, record.FieldType(fieldType), fieldLen)
	}

	return record.NewLayoutWithOffsets(schema, offsets, size), nil
}
