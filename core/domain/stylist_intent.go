package domain

// ChatTurn is one message of the conversation preceding a query.
type ChatTurn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ShoppingIntent is the structured reading of a shopper's free-text request.
type ShoppingIntent struct {
	Gender           Gender            `json:"gender"`
	Occasion         string            `json:"occasion,omitempty"`
	StyleDescriptors []string          `json:"styleDescriptors"`
	PriorityColors   []string          `json:"priorityColors"`
	SpecificProducts []string          `json:"specificProducts"`
	NeedsFullOutfit  bool              `json:"needsFullOutfit"`
	RequestedSlots   []Slot            `json:"requestedSlots"`
	KeywordsBySlot   map[Slot][]string `json:"keywordsBySlot"`
	SearchTerms      []string          `json:"searchTerms"`
}
