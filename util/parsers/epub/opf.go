package epub

// Opf holds the package document, the part of an epub that carries the
// descriptive metadata the sync path consumes.
type Opf struct {
	Metadata Metadata       `xml:"metadata" json:"metadata"`
	Manifest []ManifestItem `xml:"manifest>item" json:"manifest"`
}

type Metadata struct {
	Title       []string     `xml:"title" json:"title"`
	Creator     []Author     `xml:"creator" json:"creator"`
	Description []string     `xml:"description" json:"description"`
	Identifier  []Identifier `xml:"identifier" json:"identifier"`
	Meta        []Metafield  `xml:"meta" json:"meta"`
}

type Author struct {
	Data string `xml:",chardata" json:"author"`
	Role string `xml:"role,attr" json:"role"`
}

type Identifier struct {
	Data   string `xml:",chardata" json:"data"`
	Scheme string `xml:"scheme,attr" json:"scheme"`
}

type Metafield struct {
	Name    string `xml:"name,attr" json:"name"`
	Content string `xml:"content,attr" json:"content"`
}

type ManifestItem struct {
	ID        string `xml:"id,attr" json:"id"`
	Href      string `xml:"href,attr" json:"href"`
	MediaType string `xml:"media-type,attr" json:"media-type"`
}
