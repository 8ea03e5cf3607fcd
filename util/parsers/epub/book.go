package epub // import "github.com/anxkit/anx-sync/util/parsers/epub"

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
)

// Book gives read access to the metadata of an opened epub file
type Book struct {
	Opf       Opf       `json:"opf"`
	Container Container `json:"container"`
	Mimetype  string    `json:"mimetype"`

	fd *zip.ReadCloser
}

// Close closes the epub file
func (p *Book) Close() error {
	return p.fd.Close()
}

// readXML reads the xml file with the given name and unmarshals it into the given interface
func (p *Book) readXML(n string, v interface{}) error {
	rc, err := p.open(n)
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// readBytes reads the file with the given name and returns its content as a byte slice
func (p *Book) readBytes(n string) ([]byte, error) {
	rc, err := p.open(n)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// filename returns the full path of the file
func (p *Book) filename(n string) string {
	return path.Join(path.Dir(p.Container.Rootfile.Fullpath), n)
}

// open opens the file with the given name
func (p *Book) open(n string) (io.ReadCloser, error) {
	for _, f := range p.fd.File {
		if f.Name == n {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("file not found: %s", n)
}

func (p *Book) GetTitle() string {
	if len(p.Opf.Metadata.Title) == 0 {
		return ""
	}
	return p.Opf.Metadata.Title[0]
}

func (p *Book) GetAuthor() string {
	for _, author := range p.Opf.Metadata.Creator {
		if author.Role == "aut" {
			return author.Data
		} else if author.Role == "" {
			return author.Data
		}
	}
	return ""
}

func (p *Book) GetDescription() string {
	if len(p.Opf.Metadata.Description) == 0 {
		return ""
	}
	return p.Opf.Metadata.Description[0]
}

func (p *Book) GetISBN() string {
	for _, identifier := range p.Opf.Metadata.Identifier {
		if identifier.Scheme == "ISBN" {
			return identifier.Data
		} else if identifier.Scheme == "" {
			return identifier.Data // Fallback to default
		}
	}
	return ""
}

// GetCoverBytes returns the raw bytes of the cover image, nil when the book
// declares none.
func (p *Book) GetCoverBytes() []byte {
	href := p.coverHref()
	if href == "" {
		return nil
	}
	data, err := p.readBytes(p.filename(href))
	if err != nil {
		return nil
	}
	return data
}

// coverHref resolves the manifest item the legacy cover meta points at,
// falling back to the meta content itself when it already names a file.
func (p *Book) coverHref() string {
	for _, meta := range p.Opf.Metadata.Meta {
		if meta.Name != "cover" {
			continue
		}
		for _, item := range p.Opf.Manifest {
			if item.ID == meta.Content {
				return item.Href
			}
		}
		return meta.Content
	}
	return ""
}
