package rpc

import "github.com/chatconsole/chatconsole/internal/chat"

// MaxMessageBytes bounds a single request or response, which for SendMedia
// includes the whole file.
const MaxMessageBytes = 32 << 20

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Instance          string   `json:"instance"`
	UptimeMs          int64    `json:"uptimeMs"`
	Operators         []string `json:"operators"`
	ConversationCount int64    `json:"conversationCount"`
	MessageCount      int64    `json:"messageCount"`
}

type ListConversationsRequest struct{}

type ListConversationsResponse struct {
	Operator      string         `json:"operator"`
	Conversations []chat.Summary `json:"conversations"`
}

type ListMessagesRequest struct {
	ConversationID string `json:"conversationId"`
}

type ListMessagesResponse struct {
	Messages []chat.Message `json:"messages"`
}

type SendTextRequest struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
}

type SendMediaRequest struct {
	ConversationID string `json:"conversationId"`
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType"`
	Data           []byte `json:"data"`
}

type SendMessageResponse struct {
	Message chat.Message `json:"message"`
}

type WatchThreadRequest struct {
	ConversationID string `json:"conversationId"`
}

type StartCallRequest struct {
	ConversationID string `json:"conversationId"`
	Kind           string `json:"kind"`
}

type StartCallResponse struct {
	URL string `json:"url"`
}

// Appointment is the wire form of an appointment record.
type Appointment struct {
	PatientEmail string `json:"patientEmail"`
	PatientName  string `json:"patientName,omitempty"`
	Age          string `json:"age,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Symptoms     string `json:"symptoms,omitempty"`
	PatientPhone string `json:"patientPhone,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
}

type ImportAppointmentsRequest struct {
	Appointments []Appointment `json:"appointments"`
}

type ImportAppointmentsResponse struct {
	Imported int `json:"imported"`
}
