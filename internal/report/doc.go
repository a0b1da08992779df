// Package report implements the report strategies.
//
// A Strategy produces one artifact format from one ReportJob. Every strategy
// implements the full lifecycle (Initialize, AddReportPage, SetCharts,
// SetTables, SetStyles and RunReport); operations that mean nothing for a
// format are explicit no-ops.
//
// RunReport is the only operation with side effects on disk. It never
// changes the process working directory: every path is resolved against the
// report root of the job. Artifacts are written through a temporary file so
// a failed run leaves either no artifact or the previous one.
package report
