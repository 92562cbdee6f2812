package domain

// Slide is one page of a presentation. Content holds lightly structured
// text (paragraphs, bullet and numbered markers, bold markers) that is
// interpreted by renderers and exporters, never by the generation pipeline.
type Slide struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Content  string    `json:"content"`
	Type     SlideType `json:"type"`
	Image    string    `json:"image,omitempty"`
	Layout   string    `json:"layout"`
}

// Deck is an ordered sequence of slides. Order is display and narrative
// order and is preserved across revise operations.
type Deck []Slide

// Clone returns an independent copy of the deck so exporters and
// persisted snapshots never observe later in-place edits.
func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	out := make(Deck, len(d))
	copy(out, d)
	return out
}
