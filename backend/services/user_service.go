package services

import (
	"context"
	"errors"

	"coursemarket/backend/models"
	"coursemarket/backend/utils"
)

type UpdateUserInput struct {
	PublicMetadata models.UserMetadata `json:"publicMetadata"`
}

type UserService struct {
	identity MetadataUpdater
	log      *utils.Logger
}

func NewUserService(identity MetadataUpdater, log *utils.Logger) *UserService {
	return &UserService{identity: identity, log: log.With("service", "UserService")}
}

// UpdateMetadata writes the caller's own settings. callerRole is the role on the
// caller's current session: the teacher role gates course authoring, so it cannot
// be granted through this call.
func (s *UserService) UpdateMetadata(ctx context.Context, userID string, callerRole models.UserType, in UpdateUserInput) (*models.User, error) {
	if userID == "" {
		return nil, utils.NewValidationError("User ID is required")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.PublicMetadata.UserType == models.UserTypeTeacher && callerRole != models.UserTypeTeacher {
		s.log.Warn("teacher role change refused", "user_id", userID, "role", callerRole)
		return nil, utils.NewForbiddenError("Not authorized to change the account role")
	}
	if s.identity == nil {
		return nil, utils.NewUpstreamError("Error updating user", errors.New("identity provider is not configured"))
	}
	user, err := s.identity.UpdateUserMetadata(ctx, userID, in.PublicMetadata)
	if err != nil {
		return nil, utils.NewUpstreamError("Error updating user", err)
	}
	s.log.Info("user metadata updated", "user_id", userID, "user_type", in.PublicMetadata.UserType)
	return user, nil
}
