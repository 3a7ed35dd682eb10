package dto

import (
	"encoding/json"
	"time"

	"leadtrack/internal/entity"
)

// UpdateUserRequest is a partial update; absent fields are left alone.
type UpdateUserRequest struct {
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin manager sales support"`
}

type TokenRecordResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	TokenType string    `json:"token_type"`
	IsUsed    bool      `json:"is_used"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

// TokenRecordResponsesFromEntities leaves the token value out; admins see
// the record state only.
func TokenRecordResponsesFromEntities(records []entity.TokenRecord, now time.Time) []TokenRecordResponse {
	responses := make([]TokenRecordResponse, 0, len(records))
	for i := range records {
		record := &records[i]
		response := TokenRecordResponse{
			ID:        record.ID.String(),
			UserID:    record.UserID.String(),
			TokenType: string(record.TokenType),
			IsUsed:    record.IsUsed,
			CreatedAt: record.CreatedAt,
			ExpiresAt: record.ExpiresAt(),
			Expired:   record.IsExpired(now),
		}
		if record.User != nil {
			response.Email = record.User.Email
		}
		responses = append(responses, response)
	}
	return responses
}

type SecurityLogResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	IPAddress *string         `json:"ip_address,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func SecurityLogResponsesFromEntities(logs []entity.SecurityLog) []SecurityLogResponse {
	responses := make([]SecurityLogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, SecurityLogResponse{
			ID:        log.ID.String(),
			Action:    string(log.Action),
			IPAddress: log.IPAddress,
			Metadata:  json.RawMessage(log.Metadata),
			CreatedAt: log.CreatedAt,
		})
	}
	return responses
}
