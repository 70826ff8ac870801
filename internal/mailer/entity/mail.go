package entity

// SendRequest is a single outbound email. Text or HTML must be non-empty.
type SendRequest struct {
	To       string
	Subject  string
	Text     string
	HTML     string
	Provider Provider
}

// HasContent reports whether at least one body is present.
func (r SendRequest) HasContent() bool {
	return r.Text != "" || r.HTML != ""
}

// Sender is the configured From identity.
type Sender struct {
	Name    string
	Address string
}

// Receipt is what a provider reports back after accepting a message.
// Exchange receipts only carry the provider.
type Receipt struct {
	Provider  Provider
	MessageID string
	Accepted  []string
	Rejected  []string
}
