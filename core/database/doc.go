// Package database handles the optional run export database.
//
// It wraps GORM to open either a SQLite file or a MySQL server, and provides
// an Exporter that appends every completed reconciliation (summary row plus
// one row per output record) for auditing. Exported rows are never read back
// by the tool: each run is driven solely by its input files.
//
// # Connect
//
// Connect picks the dialect from Config.Driver ("sqlite" or "mysql"), applies
// pool settings and pings the server with the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns for both dialects. The Exporter uses
// it after migration to fail early when the export tables are not writable in
// the expected shape.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	exp := database.NewExporter(db)
//	if err := exp.Migrate(); err != nil {
//	    return err
//	}
//	err = exp.Export(ctx, run)
package database
