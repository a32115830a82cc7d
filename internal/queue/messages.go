package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrInvalidMessage marks a message that can never be processed; it is
// dead-lettered without retries.
var ErrInvalidMessage = errors.New("invalid queue message")

// PropagateMsg asks the worker to infer and persist relationships for a
// student whose declarations changed.
type PropagateMsg struct {
	SchoolID      string `json:"school_id"`
	StudentID     string `json:"student_id"`
	CorrelationID string `json:"correlation_id"`
}

// CleanupMsg asks the worker to remove invalid relationships of a school.
type CleanupMsg struct {
	SchoolID      string `json:"school_id"`
	CorrelationID string `json:"correlation_id"`
}

func correlationID() string {
	id, err := gonanoid.New()
	if err != nil {
		return ""
	}
	return id
}

func NewPropagateMsg(schoolID, studentID string) PropagateMsg {
	return PropagateMsg{SchoolID: schoolID, StudentID: studentID, CorrelationID: correlationID()}
}

func NewCleanupMsg(schoolID string) CleanupMsg {
	return CleanupMsg{SchoolID: schoolID, CorrelationID: correlationID()}
}

func decodePropagate(body []byte) (PropagateMsg, error) {
	var msg PropagateMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.SchoolID == "" || msg.StudentID == "" {
		return msg, fmt.Errorf("%w: school_id and student_id are required", ErrInvalidMessage)
	}
	return msg, nil
}

func decodeCleanup(body []byte) (CleanupMsg, error) {
	var msg CleanupMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.SchoolID == "" {
		return msg, fmt.Errorf("%w: school_id is required", ErrInvalidMessage)
	}
	return msg, nil
}

// Publish encodes msg and sends it to queueName.
func Publish(ch Publisher, queueName string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return PublishFIFO(ch, queueName, data)
}
