package store

// Conversation is one patient/operator chat container.
type Conversation struct {
	ID            string
	PatientEmail  string
	OperatorEmail string
	CreatedAt     int64
}

// Message is a single entry of a conversation's append-only stream.
// Timestamp is unix milliseconds assigned by the store. Uploaded media is
// referenced by MediaKey; download URLs are issued when the message is read.
// MediaURL holds an external URL for media not kept in the blob store.
type Message struct {
	ID        string
	ChatID    string
	Sender    string
	Timestamp int64
	Text      string
	MediaKey  string
	MediaURL  string
	MediaType string
	FileName  string
}

// HasMedia reports whether the message references an attachment.
func (m *Message) HasMedia() bool {
	return m.MediaKey != "" || m.MediaURL != ""
}

// Appointment is the subset of an appointment record used for enrichment.
// Demographic fields are free text as captured by the booking form.
type Appointment struct {
	ID           int64
	PatientEmail string
	PatientName  string
	Age          string
	Gender       string
	Symptoms     string
	PatientPhone string
	Urgency      string
	CreatedAt    int64
}
