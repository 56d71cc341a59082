package queue

import (
	"encoding/json"
	"fmt"

	"edulift.app/membership/internal/domain"
)

type TaskType string

const (
	TaskTypeFamilyInvitationEmail TaskType = "family_invitation_email"
	TaskTypeGroupInvitationEmail  TaskType = "group_invitation_email"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeFamilyInvitationEmail, TaskTypeGroupInvitationEmail:
		return true
	}
	return false
}

// FamilyInvitation decodes the payload of a family invitation task.
func (m Message) FamilyInvitation() (domain.FamilyInvitationEmail, error) {
	var payload domain.FamilyInvitationEmail
	if m.TaskType != TaskTypeFamilyInvitationEmail {
		return payload, fmt.Errorf("task %s is not a family invitation", m.TaskType)
	}
	if err := json.Unmarshal(m.Payload, &payload); err != nil {
		return payload, fmt.Errorf("decoding family invitation payload: %w", err)
	}
	return payload, nil
}

// GroupInvitation decodes the payload of a group invitation task.
func (m Message) GroupInvitation() (domain.GroupInvitationEmail, error) {
	var payload domain.GroupInvitationEmail
	if m.TaskType != TaskTypeGroupInvitationEmail {
		return payload, fmt.Errorf("task %s is not a group invitation", m.TaskType)
	}
	if err := json.Unmarshal(m.Payload, &payload); err != nil {
		return payload, fmt.Errorf("decoding group invitation payload: %w", err)
	}
	return payload, nil
}
