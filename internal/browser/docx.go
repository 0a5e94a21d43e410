package browser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
)

// buildDOCX assembles a minimal, valid OOXML WordprocessingML package by
// hand: a .docx is just a zip of a handful of fixed XML parts plus one
// document.xml carrying the actual content. No third-party library in the
// corpus speaks OOXML, so this stays on archive/zip + encoding/xml.
func buildDOCX(content domain.Content) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"_rels/.rels":         rootRelsXML,
		"word/_rels/document.xml.rels": documentRelsXML,
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(body)); err != nil {
			return nil, err
		}
	}

	doc, err := documentXML(content)
	if err != nil {
		return nil, err
	}
	w, err := zw.Create("word/document.xml")
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(doc)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`

// docxRun/docxPara model just enough of WordprocessingML to emit headings
// and paragraphs; text is escaped via xml.EscapeText when serialized below.
type docxRun struct {
	Bold bool
	Text string
}

type docxPara struct {
	Style string
	Runs  []docxRun
}

func heading(text string) docxPara {
	return docxPara{Style: "Heading1", Runs: []docxRun{{Text: text, Bold: true}}}
}

func para(text string) docxPara {
	return docxPara{Runs: []docxRun{{Text: text}}}
}

func documentXML(c domain.Content) (string, error) {
	var paras []docxPara
	paras = append(paras, heading(c.Personal.Name))
	paras = append(paras, para(fmt.Sprintf("%s | %s | %s", c.Personal.Email, c.Personal.Phone, c.Personal.Location)))
	if c.Summary != "" {
		paras = append(paras, para(c.Summary))
	}
	if len(c.Experience) > 0 {
		paras = append(paras, heading("Experience"))
		for _, e := range c.Experience {
			paras = append(paras, para(fmt.Sprintf("%s — %s (%s–%s)", e.Title, e.Company, e.StartDate, e.EndDate)))
			if e.Description != "" {
				paras = append(paras, para(e.Description))
			}
			for _, h := range e.Highlights {
				paras = append(paras, para("• "+h))
			}
		}
	}
	if len(c.Education) > 0 {
		paras = append(paras, heading("Education"))
		for _, e := range c.Education {
			paras = append(paras, para(fmt.Sprintf("%s, %s (%s–%s)", e.Degree, e.Institution, e.StartDate, e.EndDate)))
		}
	}
	if len(c.Skills) > 0 {
		paras = append(paras, heading("Skills"))
		skills := ""
		for i, s := range c.Skills {
			if i > 0 {
				skills += ", "
			}
			skills += s
		}
		paras = append(paras, para(skills))
	}
	if len(c.Projects) > 0 {
		paras = append(paras, heading("Projects"))
		for _, p := range c.Projects {
			paras = append(paras, para(fmt.Sprintf("%s — %s", p.Name, p.Description)))
		}
	}
	if len(c.Certifications) > 0 {
		paras = append(paras, heading("Certifications"))
		for _, cert := range c.Certifications {
			paras = append(paras, para(fmt.Sprintf("%s — %s (%s)", cert.Name, cert.Issuer, cert.Date)))
		}
	}

	var bodyXML bytes.Buffer
	bodyXML.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	bodyXML.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paras {
		bodyXML.WriteString(`<w:p>`)
		if p.Style != "" {
			bodyXML.WriteString(fmt.Sprintf(`<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, p.Style))
		}
		for _, r := range p.Runs {
			bodyXML.WriteString(`<w:r>`)
			if r.Bold {
				bodyXML.WriteString(`<w:rPr><w:b/></w:rPr>`)
			}
			bodyXML.WriteString(`<w:t xml:space="preserve">`)
			if err := xml.EscapeText(&bodyXML, []byte(r.Text)); err != nil {
				return "", err
			}
			bodyXML.WriteString(`</w:t></w:r>`)
		}
		bodyXML.WriteString(`</w:p>`)
	}
	bodyXML.WriteString(`</w:body></w:document>`)
	return bodyXML.String(), nil
}
