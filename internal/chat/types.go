package chat

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotOperator         = errors.New("identity is not an authorized operator")
	ErrForbidden           = errors.New("conversation not addressed to operator")
	ErrEmptyMessage        = errors.New("message body is empty")
	ErrInvalidConversation = errors.New("invalid conversation id")
	ErrInvalidCallKind     = errors.New("invalid call kind")
	ErrNotFound            = errors.New("not found")
)

// Urgency is the triage classification taken from an appointment.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency classifies urgency text for display, ignoring case and
// surrounding space. Empty or unrecognised values classify as UrgencyMedium.
func ParseUrgency(s string) Urgency {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return u
	default:
		return UrgencyMedium
	}
}

// MediaKind classifies an attachment for rendering.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaFile  MediaKind = "file"
)

// ClassifyMedia derives the media kind from a declared content type.
func ClassifyMedia(contentType string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo
	default:
		return MediaFile
	}
}

// Media references an uploaded attachment.
type Media struct {
	URL      string    `json:"url"`
	Kind     MediaKind `json:"kind"`
	FileName string    `json:"fileName"`
}

// Message is one entry of a conversation thread.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"`
	Timestamp      time.Time `json:"timestamp"`
	Text           string    `json:"text,omitempty"`
	Media          *Media    `json:"media,omitempty"`
}

// PatientProfile is the demographic and triage data shown next to a conversation.
type PatientProfile struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Age      string  `json:"age"`
	Gender   string  `json:"gender"`
	Symptoms string  `json:"symptoms"`
	Contact  string  `json:"contact"`
	Urgency  Urgency `json:"urgency"`
}

// Summary is one row of the operator's conversation list.
type Summary struct {
	ID              string         `json:"id"`
	PatientEmail    string         `json:"patientEmail"`
	Patient         PatientProfile `json:"patientInfo"`
	LastMessage     string         `json:"lastMessage"`
	LastMessageTime time.Time      `json:"lastMessageTime"`
	UnreadCount     int            `json:"unreadCount"`
}

// Snapshot is the complete ordered message list of a conversation at one point in time.
type Snapshot struct {
	ConversationID string    `json:"conversationId"`
	Messages       []Message `json:"messages"`
}
