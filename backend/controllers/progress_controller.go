package controllers

import (
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Progress *services.ProgressService
}

func NewProgressController(progress *services.ProgressService) *ProgressController {
	return &ProgressController{Progress: progress}
}

// GetEnrolledCourses godoc
// @Summary Enrolled courses
// @Tags progress
// @Produce json
// @Param userId path string true "Learner ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/course-progress/{userId}/enrolled-courses [get]
func (pc *ProgressController) GetEnrolledCourses(c *fiber.Ctx) error {
	courses, err := pc.Progress.EnrolledCourses(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return utils.OK(c, "Enrolled courses retrieved successfully", courses)
}

// GetCourseProgress godoc
// @Summary Course progress
// @Tags progress
// @Produce json
// @Param userId path string true "Learner ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/course-progress/{userId}/courses/{courseId} [get]
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	progress, err := pc.Progress.Get(c.UserContext(), c.Params("userId"), c.Params("courseId"))
	if err != nil {
		return err
	}
	return utils.OK(c, "Course progress retrieved successfully", progress)
}

// UpdateCourseProgress godoc
// @Summary Update course progress
// @Description Merges chapter completion flags by section and chapter id and recomputes the overall percentage
// @Tags progress
// @Accept json
// @Produce json
// @Param userId path string true "Learner ID"
// @Param courseId path string true "Course ID"
// @Param request body services.UpdateProgressInput true "Section progress"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/course-progress/{userId}/courses/{courseId} [put]
func (pc *ProgressController) UpdateCourseProgress(c *fiber.Ctx) error {
	var in services.UpdateProgressInput
	if err := c.BodyParser(&in); err != nil {
		return utils.NewValidationError("Invalid request body")
	}
	progress, err := pc.Progress.Update(c.UserContext(), c.Params("userId"), c.Params("courseId"), in)
	if err != nil {
		return err
	}
	return utils.OK(c, "User course progress updated successfully", progress)
}
