package chat

import (
	"fmt"
	"strings"
)

// idSeparator joins patient and operator identities in a conversation id.
const idSeparator = "_to_"

// ConversationIDFor builds the id of the conversation between a patient and an operator.
func ConversationIDFor(patient, operator string) string {
	return patient + idSeparator + operator
}

// PatientOf returns the patient identity of a conversation id: the text
// preceding the first "_to_". Ids without the separator yield the whole id.
func PatientOf(id string) string {
	patient, _, _ := strings.Cut(id, idSeparator)
	return patient
}

// AddressedTo reports whether the conversation belongs to operator, i.e.
// whether the id ends with "_to_{operator}".
//
// Suffix matching on ids is the compatibility contract with existing
// conversation records; new records also carry an explicit operator column.
func AddressedTo(id, operator string) bool {
	if operator == "" {
		return false
	}
	return strings.HasSuffix(id, idSeparator+operator)
}

// SplitConversationID returns the patient and operator parts of id.
func SplitConversationID(id string) (patient, operator string, err error) {
	patient, operator, ok := strings.Cut(id, idSeparator)
	if !ok || patient == "" || operator == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidConversation, id)
	}
	return patient, operator, nil
}

// CheckAccess returns ErrForbidden unless the conversation is addressed to operator.
func CheckAccess(operator, id string) error {
	if _, _, err := SplitConversationID(id); err != nil {
		return err
	}
	if !AddressedTo(id, operator) {
		return fmt.Errorf("%w: conversation %q", ErrForbidden, id)
	}
	return nil
}

// localPart returns the part of an email address before "@".
func localPart(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
