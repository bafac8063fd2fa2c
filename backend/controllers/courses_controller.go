package controllers

import (
	"encoding/json"
	"strings"

	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Courses *services.CourseService
	Sales   *services.SalesService
}

func NewCoursesController(courses *services.CourseService, sales *services.SalesService) *CoursesController {
	return &CoursesController{Courses: courses, Sales: sales}
}

// ListCourses godoc
// @Summary List courses
// @Description Returns every course, optionally filtered by category ("all" disables the filter)
// @Tags courses
// @Produce json
// @Param category query string false "Course category"
// @Success 200 {object} utils.SuccessResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /courses [get]
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	courses, err := cc.Courses.List(c.UserContext(), c.Query("category"))
	if err != nil {
		return err
	}
	return utils.OK(c, "Courses retrieved successfully", courses)
}

// GetCourse godoc
// @Summary Get course
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{courseId} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	course, err := cc.Courses.Get(c.UserContext(), c.Params("courseId"))
	if err != nil {
		return err
	}
	return utils.OK(c, "Course retrieved successfully", course)
}

// CreateCourse godoc
// @Summary Create course
// @Description Creates an empty draft owned by the calling teacher
// @Tags courses
// @Accept json
// @Produce json
// @Param request body services.CreateCourseInput true "Teacher display name"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var in services.CreateCourseInput
	if err := c.BodyParser(&in); err != nil {
		return utils.NewValidationError("Invalid request body")
	}
	course, err := cc.Courses.Create(c.UserContext(), middleware.Session(c).UserID, in)
	if err != nil {
		return err
	}
	return utils.Created(c, "Course created successfully", course)
}

// UpdateCourse godoc
// @Summary Update course
// @Description Updates course fields. Sections replace the curriculum; price is given in whole display units
// @Tags courses
// @Accept json,mpfd
// @Produce json
// @Param courseId path string true "Course ID"
// @Param request body services.UpdateCourseInput true "Changed fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{courseId} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	// Ownership is settled before the payload is even read.
	course, err := cc.Courses.GetOwned(c.UserContext(), c.Params("courseId"), middleware.Session(c).UserID)
	if err != nil {
		return err
	}

	in, err := parseUpdateCourse(c)
	if err != nil {
		return err
	}

	updated, err := cc.Courses.Update(c.UserContext(), course, in)
	if err != nil {
		return err
	}
	return utils.OK(c, "Course updated successfully", updated)
}

// parseUpdateCourse reads JSON bodies as they are and multipart forms field by
// field, where sections and extensions arrive as JSON-encoded strings.
func parseUpdateCourse(c *fiber.Ctx) (services.UpdateCourseInput, error) {
	var in services.UpdateCourseInput
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return in, utils.NewValidationError("Invalid form data")
		}
		fields := make(map[string]string, len(form.Value))
		for key, values := range form.Value {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return in, utils.NewValidationError("Invalid form data")
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return in, utils.NewValidationError("Invalid form data")
		}
		return in, nil
	}
	if err := c.BodyParser(&in); err != nil {
		return in, utils.NewValidationError("Invalid request body")
	}
	return in, nil
}

// DeleteCourse godoc
// @Summary Delete course
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{courseId} [delete]
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	course, err := cc.Courses.GetOwned(c.UserContext(), c.Params("courseId"), middleware.Session(c).UserID)
	if err != nil {
		return err
	}
	if err := cc.Courses.Delete(c.UserContext(), course); err != nil {
		return err
	}
	return utils.OK(c, "Course deleted successfully", course)
}

// GetUploadVideoURL godoc
// @Summary Get chapter video upload URL
// @Description Returns a short-lived signed URL to PUT the video to, and the URL it will be served from
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param sectionId path string true "Section ID"
// @Param chapterId path string true "Chapter ID"
// @Param request body services.UploadURLInput true "File name and MIME type"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{courseId}/sections/{sectionId}/chapters/{chapterId}/get-upload-url [post]
func (cc *CoursesController) GetUploadVideoURL(c *fiber.Ctx) error {
	course, err := cc.Courses.GetOwned(c.UserContext(), c.Params("courseId"), middleware.Session(c).UserID)
	if err != nil {
		return err
	}

	var in services.UploadURLInput
	if err := c.BodyParser(&in); err != nil {
		return utils.NewValidationError("Invalid request body")
	}

	out, err := cc.Courses.UploadURL(c.UserContext(), course, c.Params("sectionId"), c.Params("chapterId"), in)
	if err != nil {
		return err
	}
	return utils.OK(c, "Upload URL generated successfully", out)
}
