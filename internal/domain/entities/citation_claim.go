package entities

// CitationClaim records an assertion backed by a quoted passage of a citation.
type CitationClaim struct {
	Revision
	ClaimID    string        `json:"claim_id" validate:"required,slug,max=200"`
	CitationID string        `json:"citation_id" validate:"required,uuid"`
	Locator    string        `json:"locator,omitempty" validate:"max=100,nocontrol,singleline"`
	Quote      LocalizedText `json:"quote" validate:"required,min=1,dive,keys,langcode,endkeys,nocontrol,max=5000"`
	Assertion  LocalizedText `json:"assertion" validate:"required,min=1,dive,keys,langcode,endkeys,nocontrol,max=5000"`
}

func NewCitationClaim() *CitationClaim {
	return &CitationClaim{}
}

func (c *CitationClaim) Kind() Kind { return KindCitationClaim }

func (c *CitationClaim) Key() string { return c.ClaimID }

func (c *CitationClaim) Fields() []Field {
	return []Field{
		ScalarField("claim_id", c.ClaimID),
		ScalarField("citation_id", c.CitationID),
		ScalarField("locator", c.Locator),
		LocalizedField("quote", c.Quote),
		LocalizedField("assertion", c.Assertion),
	}
}

func (c *CitationClaim) Clone() *CitationClaim {
	out := *c
	out.Revision = c.Revision.CloneRevision()
	out.Quote = c.Quote.Clone()
	out.Assertion = c.Assertion.Clone()
	return &out
}

// CitationClaimInput is a partial update of a claim.
type CitationClaimInput struct {
	ClaimID    *string       `json:"claim_id,omitempty"`
	CitationID *string       `json:"citation_id,omitempty"`
	Locator    *string       `json:"locator,omitempty"`
	Quote      LocalizedText `json:"quote,omitempty"`
	Assertion  LocalizedText `json:"assertion,omitempty"`
}

func (in CitationClaimInput) ApplyTo(c *CitationClaim) {
	if in.ClaimID != nil {
		c.ClaimID = *in.ClaimID
	}
	if in.CitationID != nil {
		c.CitationID = *in.CitationID
	}
	if in.Locator != nil {
		c.Locator = *in.Locator
	}
	c.Quote = c.Quote.Merge(in.Quote)
	c.Assertion = c.Assertion.Merge(in.Assertion)
}
