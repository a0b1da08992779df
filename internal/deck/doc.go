// Package deck writes pptx slide decks with native charts.
//
// A Presentation holds slides built on one of two layouts, "Title Only" and
// "Blank". Slides carry an optional title and any number of charts. Each
// chart is a DrawingML chart part whose data is also embedded as an xlsx
// workbook, so the chart stays editable in presentation software.
//
//	p := deck.New()
//	slide := p.AddSlide(deck.LayoutTitleOnly)
//	slide.SetTitle("Visits")
//	data := deck.NewChartData("Jan", "Feb")
//	_ = data.AddSeries("Web", 10, 12)
//	_, _ = slide.AddChart(model.ChartLine, deck.Position{X: deck.Inches(2), Y: deck.Inches(2)},
//		deck.Size{Width: deck.Inches(6), Height: deck.Inches(4.5)}, data)
//	_ = p.Save("out.pptx")
package deck
