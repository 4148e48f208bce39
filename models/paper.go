package models

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// doiPattern akzeptiert DOIs der Form 10.NNNN(N*)/suffix.
var doiPattern = regexp.MustCompile(`^10\.\d{4}\d*/\S+$`)

// Paper repräsentiert die Metadaten eines Papers aus einem Preprint-Archiv.
// Die ID ist die Quell-URL des Papers und nach dem Anlegen unveränderlich.
type Paper struct {
	ID        string    `json:"id" bson:"_id" binding:"required"`
	Title     string    `json:"title" bson:"title" binding:"required"`
	Summary   string    `json:"summary" bson:"summary" binding:"required"`
	Published time.Time `json:"published" bson:"published" binding:"required"`
	Updated   time.Time `json:"updated" bson:"updated" binding:"required"`
	PDFURL    string    `json:"pdf_url" bson:"pdf_url" binding:"required"`

	// Lokaler bzw. Cloud-Speicherort der PDF, null bis ein Download erfolgt ist.
	DownloadPath *string `json:"download_path" bson:"download_path"`
	DOI          *string `json:"doi" bson:"doi"`
	Comment      *string `json:"comment" bson:"comment"`
}

// Normalize bringt alle Zeitstempel nach UTC, damit die JSON-Ausgabe
// ISO-8601 mit Z-Suffix liefert und Mongo konsistente Werte speichert.
func (p *Paper) Normalize() {
	p.Published = p.Published.UTC()
	p.Updated = p.Updated.UTC()
}

// Validate prüft URL- und DOI-Formate. Pflichtfelder deckt bereits das
// gin-Binding ab.
func (p *Paper) Validate() error {
	if err := checkURL("id", p.ID); err != nil {
		return err
	}
	if err := checkURL("pdf_url", p.PDFURL); err != nil {
		return err
	}
	if p.DOI != nil && *p.DOI != "" && !doiPattern.MatchString(*p.DOI) {
		return fmt.Errorf("doi %q does not match 10.NNNN/suffix", *p.DOI)
	}
	return nil
}

// PaperUpdate ist die partielle Projektion eines Papers für Updates.
// Nil-Felder werden nicht angewendet; die ID ist nicht änderbar.
type PaperUpdate struct {
	Title        *string    `json:"title"`
	Summary      *string    `json:"summary"`
	Published    *time.Time `json:"published"`
	Updated      *time.Time `json:"updated"`
	PDFURL       *string    `json:"pdf_url"`
	DownloadPath *string    `json:"download_path"`
	DOI          *string    `json:"doi"`
	Comment      *string    `json:"comment"`
}

// Validate prüft die Formate der tatsächlich gesetzten Felder.
func (u *PaperUpdate) Validate() error {
	if u.PDFURL != nil {
		if err := checkURL("pdf_url", *u.PDFURL); err != nil {
			return err
		}
	}
	if u.DOI != nil && *u.DOI != "" && !doiPattern.MatchString(*u.DOI) {
		return fmt.Errorf("doi %q does not match 10.NNNN/suffix", *u.DOI)
	}
	return nil
}

// Fields liefert nur die gesetzten Felder als Update-Dokument ($set-Form).
func (u *PaperUpdate) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Summary != nil {
		fields["summary"] = *u.Summary
	}
	if u.Published != nil {
		fields["published"] = u.Published.UTC()
	}
	if u.Updated != nil {
		fields["updated"] = u.Updated.UTC()
	}
	if u.PDFURL != nil {
		fields["pdf_url"] = *u.PDFURL
	}
	if u.DownloadPath != nil {
		fields["download_path"] = *u.DownloadPath
	}
	if u.DOI != nil {
		fields["doi"] = *u.DOI
	}
	if u.Comment != nil {
		fields["comment"] = *u.Comment
	}
	return fields
}

func checkURL(field, raw string) error {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s %q is not a valid URL", field, raw)
	}
	return nil
}
