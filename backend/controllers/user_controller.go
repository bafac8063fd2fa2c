package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{Users: users}
}

// UpdateUser godoc
// @Summary Update user settings
// @Description Writes the role and notification settings to the identity provider's public metadata
// @Tags users
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param request body services.UpdateUserInput true "Public metadata"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/clerk/{userId} [put]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	var in services.UpdateUserInput
	if err := c.BodyParser(&in); err != nil {
		return utils.NewValidationError("Invalid request body")
	}
	user, err := uc.Users.UpdateMetadata(c.UserContext(), c.Params("userId"), middleware.Session(c).Role, in)
	if err != nil {
		return err
	}
	return utils.OK(c, "User updated successfully", user)
}
