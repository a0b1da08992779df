// Package main provides the entry point for the Prism CLI.
//
// Prism turns one data file into several report formats (a PDF document,
// a slide deck and a spreadsheet) as described by a settings file.
//
// Usage:
//
//	prism init sales
//	prism run settings.json
//	prism history sales
//
// See --help for all available options.
package main

// main is the entry point for Prism.
func main() {
	Execute()
}
