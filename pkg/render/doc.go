// Package render draws label sheets.
//
// A [Drawer] receives pages and label contents from the pipeline and writes
// the finished document. [PDF] is the gofpdf implementation: it lays out a
// title line, a subtitle line, an optional symbol in the top-right corner
// and an optional QR code in the bottom-right corner of every label.
//
//	d := render.NewPDF(tmpl, render.WithOutlines(true))
//	defer d.Close()
//	d.BeginPage()
//	if err := d.DrawLabel(pos, render.Content{Title: "Dominaria", Subtitle: "DOM - April 2018"}); err != nil {
//	    return err
//	}
//	err := d.Finish(w)
//
// Coordinates are points with the origin at the top-left page corner.
// Text uses the PDF core fonts, so characters outside Windows-1252 are
// replaced.
package render
