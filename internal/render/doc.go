// Package render turns template variables into markup and markup into PDF.
//
// TemplateRenderer executes html/template files from one directory with
// missingkey=error, so a template that references a variable nobody set
// fails with model.ErrTemplate instead of printing "<no value>".
//
// PDFRenderer lays out a subset of HTML (headings, paragraphs, lists, tables,
// images, rules and page breaks) with the core PDF fonts. Styling comes from
// a subset of CSS read from the style resources and from <style> elements in
// the markup. Tables repeat their header row after a page break and every
// page carries a page-number footer. JPEG images are turned upright according
// to their EXIF orientation.
package render
