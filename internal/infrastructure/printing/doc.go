// Package printing renders sales orders and invoices to HTML and PDF.
//
// DocumentTemplates fills the embedded html/template files with a document
// and its customer. ChromedpRenderer prints the resulting HTML to an A4 PDF
// through headless Chrome:
//
//	templates, err := NewDocumentTemplates(WithCompanyName("Acme Traders"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf, err := NewChromedpRenderer(cfg.PDF, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pdf.Close()
//
//	html, _ := templates.RenderDocument(ctx, doc, customer)
//	data, err := pdf.Render(ctx, html)
package printing
