// internal/services/directory_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/repository"
)

// DirectoryService resolves authenticated users to their creator or hotel
// profile. Profiles and listings are owned elsewhere and only read here.
type DirectoryService struct {
	repo repository.Repository
}

func NewDirectoryService(repo repository.Repository) *DirectoryService {
	return &DirectoryService{repo: repo}
}

// ResolveParty maps a user id and user type from the bearer token to a party.
func (s *DirectoryService) ResolveParty(ctx context.Context, userID uuid.UUID, userType string) (models.Party, error) {
	role := models.PartyRole(userType)
	party := models.Party{Role: role, UserID: userID}

	switch role {
	case models.PartyCreator:
		profile, err := s.repo.FindCreatorByUserID(ctx, userID)
		if err != nil {
			return party, fmt.Errorf("failed to resolve creator profile: %w", err)
		}
		if profile == nil {
			return party, apperror.Forbidden("creator profile not found for user")
		}
		party.ProfileID = profile.ID
	case models.PartyHotel:
		profile, err := s.repo.FindHotelByUserID(ctx, userID)
		if err != nil {
			return party, fmt.Errorf("failed to resolve hotel profile: %w", err)
		}
		if profile == nil {
			return party, apperror.Forbidden("hotel profile not found for user")
		}
		party.ProfileID = profile.ID
	default:
		return party, apperror.Forbidden("only creators and hotels can take part in collaborations")
	}

	return party, nil
}

// UserIDOf returns the user account behind the given side of a collaboration.
func (s *DirectoryService) UserIDOf(ctx context.Context, c *models.Collaboration, role models.PartyRole) (uuid.UUID, error) {
	switch role {
	case models.PartyCreator:
		if c.Creator != nil {
			return c.Creator.UserID, nil
		}
		creator, err := s.repo.GetCreator(ctx, c.CreatorID)
		if err != nil {
			return uuid.Nil, err
		}
		return creator.UserID, nil
	case models.PartyHotel:
		if c.Hotel != nil {
			return c.Hotel.UserID, nil
		}
		hotel, err := s.repo.GetHotel(ctx, c.HotelID)
		if err != nil {
			return uuid.Nil, err
		}
		return hotel.UserID, nil
	}
	return uuid.Nil, fmt.Errorf("unknown party role %q", role)
}

// authorize checks that party is one of the two sides of c.
func authorize(party models.Party, c *models.Collaboration) error {
	if !party.Role.Valid() || c.ProfileID(party.Role) != party.ProfileID {
		return apperror.Forbidden("you are not a participant of this collaboration")
	}
	return nil
}
