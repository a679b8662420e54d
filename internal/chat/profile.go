package chat

import (
	"fmt"
	"time"

	"github.com/chatconsole/chatconsole/internal/store"
)

const (
	notAvailable     = "N/A"
	mediaPreviewText = "Media file"
)

// ProfileFor builds the patient profile for patient from its first matching
// appointment. A nil appointment yields the fallback profile.
func ProfileFor(patient string, appt *store.Appointment) PatientProfile {
	p := PatientProfile{
		Name:     localPart(patient),
		Email:    patient,
		Age:      notAvailable,
		Gender:   notAvailable,
		Symptoms: notAvailable,
		Contact:  notAvailable,
		Urgency:  UrgencyMedium,
	}
	if appt == nil {
		return p
	}
	p.Name = orDefault(appt.PatientName, p.Name)
	p.Age = orDefault(appt.Age, notAvailable)
	p.Gender = orDefault(appt.Gender, notAvailable)
	p.Symptoms = orDefault(appt.Symptoms, notAvailable)
	p.Contact = orDefault(appt.PatientPhone, notAvailable)
	if appt.Urgency != "" {
		p.Urgency = Urgency(appt.Urgency)
	}
	return p
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Preview returns the list preview text for a message.
func Preview(m *store.Message) string {
	if m.Text != "" {
		return m.Text
	}
	return mediaPreviewText
}

// MessageFromStore converts a stored message into its domain form, issuing
// a fresh download URL for media kept in the blob store. The message is
// always returned; an error means its media URL could not be issued and is
// left empty.
func MessageFromStore(m *store.Message, urls MediaURLs) (Message, error) {
	out := Message{
		ID:             m.ID,
		ConversationID: m.ChatID,
		Sender:         m.Sender,
		Timestamp:      time.UnixMilli(m.Timestamp),
		Text:           m.Text,
	}
	if !m.HasMedia() {
		return out, nil
	}
	out.Media = &Media{URL: m.MediaURL, Kind: MediaKind(m.MediaType), FileName: m.FileName}
	if m.MediaKey == "" {
		return out, nil
	}
	u, err := urls.URL(m.MediaKey)
	if err != nil {
		return out, fmt.Errorf("issue url for %q: %w", m.MediaKey, err)
	}
	out.Media.URL = u
	return out, nil
}
