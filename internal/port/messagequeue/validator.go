package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/rentalmanager/internal/domain/event"
)

// Validate checks whether data is valid JSON conforming to the payload
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch {
	case subject == SubjectAuthState:
		var p event.AuthState
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.UserID == "" || p.Change == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("user_id and change are required"))
		}
	case strings.HasPrefix(subject, SubjectRecordsChanged+"."):
		var p event.RecordChanged
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.UserID == "" || p.ID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("user_id and id are required"))
		}
	}
	return nil
}
