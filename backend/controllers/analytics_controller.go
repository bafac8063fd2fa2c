package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// GetCourseSales godoc
// @Summary Course sales
// @Description Enrollment, learner and revenue totals for a course, visible to its teacher only
// @Tags analytics
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{courseId}/sales [get]
func (cc *CoursesController) GetCourseSales(c *fiber.Ctx) error {
	course, err := cc.Courses.GetOwned(c.UserContext(), c.Params("courseId"), middleware.Session(c).UserID)
	if err != nil {
		return err
	}
	sales, err := cc.Sales.CourseSales(c.UserContext(), course)
	if err != nil {
		return err
	}
	return utils.OK(c, "Course sales retrieved successfully", sales)
}
