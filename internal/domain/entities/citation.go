package entities

// Citation is a bibliographic reference. Data holds a CSL-JSON item.
type Citation struct {
	Revision
	CiteKey string         `json:"key" validate:"required,slug,max=200"`
	Data    map[string]any `json:"data" validate:"required,csl"`
	Note    LocalizedText  `json:"note,omitempty" validate:"omitempty,dive,keys,langcode,endkeys,nocontrol,max=5000"`
}

func NewCitation() *Citation {
	return &Citation{}
}

func (c *Citation) Kind() Kind { return KindCitation }

func (c *Citation) Key() string { return c.CiteKey }

func (c *Citation) Fields() []Field {
	return []Field{
		ScalarField("key", c.CiteKey),
		StructuredField("data", c.Data),
		LocalizedField("note", c.Note),
	}
}

func (c *Citation) Clone() *Citation {
	out := *c
	out.Revision = c.Revision.CloneRevision()
	out.Data = CloneObject(c.Data)
	out.Note = c.Note.Clone()
	return &out
}

// CitationInput is a partial update of a citation. Data replaces the stored
// CSL item wholesale.
type CitationInput struct {
	Key  *string        `json:"key,omitempty"`
	Data map[string]any `json:"data,omitempty"`
	Note LocalizedText  `json:"note,omitempty"`
}

func (in CitationInput) ApplyTo(c *Citation) {
	if in.Key != nil {
		c.CiteKey = *in.Key
	}
	if in.Data != nil {
		c.Data = CloneObject(in.Data)
	}
	c.Note = c.Note.Merge(in.Note)
}
