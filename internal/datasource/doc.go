// Package datasource loads data files into a model.TableSet.
//
// Supported formats:
//   - .xlsx/.xlsm: every non-empty worksheet becomes one table, in workbook order
//   - .csv: the file becomes one table named after the file stem
//
// In both formats the first non-empty row is the header row.
package datasource
