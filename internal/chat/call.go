package chat

import (
	"fmt"
	"net/url"
	"strings"
)

// CallKind selects the media of a call.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

// callPath is the route of the call screen.
const callPath = "/admin/call"

// ParseCallKind validates a call kind.
func ParseCallKind(s string) (CallKind, error) {
	switch k := CallKind(s); k {
	case CallAudio, CallVideo:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCallKind, s)
	}
}

// CallURL returns the call screen URL for a conversation. The call screen
// owns authorization and signaling; the conversation id is only a channel name.
func CallURL(base, conversationID string, kind CallKind) (string, error) {
	if _, err := ParseCallKind(string(kind)); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("channel", conversationID)
	q.Set("type", string(kind))
	return strings.TrimRight(base, "/") + callPath + "?" + q.Encode(), nil
}
