package userview

import (
	"context"
	"encoding/json"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/models"
)

// UserLookup finds a registered user.
type UserLookup interface {
	Get(id int) (models.User, error)
}

// PartFetcher fetches a part body from the Parts service.
type PartFetcher interface {
	Fetch(ctx context.Context, partID int) (json.RawMessage, error)
}

// Service answers "show this user this part" requests. It is read-only.
type Service struct {
	users UserLookup
	parts PartFetcher
}

func NewService(users UserLookup, parts PartFetcher) *Service {
	return &Service{users: users, parts: parts}
}

// Orchestrate looks the user up first and only calls the Parts service when
// the user exists. Errors from either side are returned unchanged.
func (s *Service) Orchestrate(ctx context.Context, userID, partID int) (models.UserPartView, error) {
	if _, err := s.users.Get(userID); err != nil {
		return models.UserPartView{}, err
	}

	part, err := s.parts.Fetch(ctx, partID)
	if err != nil {
		return models.UserPartView{}, err
	}

	return models.UserPartView{UserID: userID, PartID: partID, Part: part}, nil
}
