package entities

// BlogPost is a dated article outside the wiki namespace.
type BlogPost struct {
	Revision
	Slug  string        `json:"slug" validate:"required,slug,max=200"`
	Title LocalizedText `json:"title" validate:"required,min=1,dive,keys,langcode,endkeys,nocontrol,singleline,max=300"`
	Body  LocalizedText `json:"body,omitempty" validate:"omitempty,dive,keys,langcode,endkeys,nocontrol,max=200000"`
}

func NewBlogPost() *BlogPost {
	return &BlogPost{}
}

func (b *BlogPost) Kind() Kind { return KindBlogPost }

func (b *BlogPost) Key() string { return b.Slug }

func (b *BlogPost) Fields() []Field {
	return []Field{
		ScalarField("slug", b.Slug),
		LocalizedField("title", b.Title),
		LocalizedField("body", b.Body),
	}
}

func (b *BlogPost) Clone() *BlogPost {
	c := *b
	c.Revision = b.Revision.CloneRevision()
	c.Title = b.Title.Clone()
	c.Body = b.Body.Clone()
	return &c
}

func (b *BlogPost) SearchTexts() []SearchText {
	return localizedSearchTexts(b.Title, b.Body)
}

// BlogPostInput is a partial update of a blog post.
type BlogPostInput struct {
	Slug  *string       `json:"slug,omitempty"`
	Title LocalizedText `json:"title,omitempty"`
	Body  LocalizedText `json:"body,omitempty"`
}

func (in BlogPostInput) ApplyTo(b *BlogPost) {
	if in.Slug != nil {
		b.Slug = *in.Slug
	}
	b.Title = b.Title.Merge(in.Title)
	b.Body = b.Body.Merge(in.Body)
}
