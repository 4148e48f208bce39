// Package arxiv enthält die Logik für die Interaktion mit der arXiv API.
package arxiv

import "encoding/xml"

// Feed repräsentiert die Atom-Antwort der arXiv Query-API.
type Feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []Entry  `xml:"entry"`
}

// Entry repräsentiert ein einzelnes Paper im Atom-Feed.
type Entry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	DOI       string `xml:"doi"`
	Comment   string `xml:"comment"`
	Links     []Link `xml:"link"`
}

// Link repräsentiert einen Link-Eintrag (HTML-Seite oder PDF) im Entry.
type Link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}
