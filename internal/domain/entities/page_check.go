package entities

// Check statuses.
const (
	CheckPass = "pass"
	CheckWarn = "warn"
	CheckFail = "fail"
)

// PageCheck is a quality check run against a wiki page.
// It has no human-facing key and is addressed by id only.
type PageCheck struct {
	Revision
	PageID    string         `json:"page_id" validate:"required,uuid"`
	CheckType string         `json:"check_type" validate:"required,slug,max=100"`
	Status    string         `json:"status" validate:"required,oneof=pass warn fail"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	Notes     LocalizedText  `json:"notes,omitempty" validate:"omitempty,dive,keys,langcode,endkeys,nocontrol,max=5000"`
}

func NewPageCheck() *PageCheck {
	return &PageCheck{}
}

func (c *PageCheck) Kind() Kind { return KindPageCheck }

func (c *PageCheck) Key() string { return "" }

func (c *PageCheck) Fields() []Field {
	return []Field{
		ScalarField("page_id", c.PageID),
		ScalarField("check_type", c.CheckType),
		ScalarField("status", c.Status),
		StructuredField("metrics", c.Metrics),
		LocalizedField("notes", c.Notes),
	}
}

func (c *PageCheck) Clone() *PageCheck {
	out := *c
	out.Revision = c.Revision.CloneRevision()
	out.Metrics = CloneObject(c.Metrics)
	out.Notes = c.Notes.Clone()
	return &out
}

// PageCheckInput is a partial update of a check. Metrics replace the stored
// metrics wholesale.
type PageCheckInput struct {
	PageID    *string        `json:"page_id,omitempty"`
	CheckType *string        `json:"check_type,omitempty"`
	Status    *string        `json:"status,omitempty"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	Notes     LocalizedText  `json:"notes,omitempty"`
}

func (in PageCheckInput) ApplyTo(c *PageCheck) {
	if in.PageID != nil {
		c.PageID = *in.PageID
	}
	if in.CheckType != nil {
		c.CheckType = *in.CheckType
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.Metrics != nil {
		c.Metrics = CloneObject(in.Metrics)
	}
	c.Notes = c.Notes.Merge(in.Notes)
}
