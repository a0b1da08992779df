// Package workbook writes xlsx workbooks with excelize.
//
// A Workbook starts with no visible sheets of its own: the first AddSheet
// call takes over the default sheet excelize creates, so saved files never
// contain an empty "Sheet1".
package workbook
