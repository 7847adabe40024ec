// Package exporter writes dashboard snapshots to disk as CSV files or
// a multi-sheet Excel workbook.
//
// SnapshotTables flattens a snapshot into named header/row tables, and
// CSVWriter and ExcelWriter render those tables. CSV output carries a
// UTF-8 BOM so Excel opens it with the right encoding.
package exporter
