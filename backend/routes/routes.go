package routes

import (
	"coursemarket/backend/config"
	"coursemarket/backend/controllers"
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const purchaseRequestsPerMinute = 20

// NewApp builds the fiber app with the shared middleware stack. Routes are
// added by SetupRoutes.
func NewApp(cfg *config.Config, logger *utils.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "course-marketplace",
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          utils.ErrorHandler,
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(middleware.RequestContext(cfg.RequestTimeout))
	app.Use(middleware.LoggingMiddleware(logger))

	return app
}

func SetupRoutes(app *fiber.App, svc *services.Services, verifier *utils.SessionVerifier) {
	authMiddleware := middleware.AuthMiddleware(verifier)
	teacherMiddleware := middleware.TeacherMiddleware()
	selfMiddleware := middleware.SelfMiddleware("userId")
	purchaseLimiter := middleware.PurchaseRateLimiter(purchaseRequestsPerMinute)

	app.Get("/health", func(c *fiber.Ctx) error {
		return utils.OK(c, "ok", nil)
	})

	// Course routes
	coursesController := controllers.NewCoursesController(svc.Courses, svc.Sales)
	courses := app.Group("/courses")
	courses.Get("/", coursesController.ListCourses)
	courses.Post("/", authMiddleware, teacherMiddleware, coursesController.CreateCourse)
	courses.Get("/:courseId", coursesController.GetCourse)
	courses.Put("/:courseId", authMiddleware, coursesController.UpdateCourse)
	courses.Delete("/:courseId", authMiddleware, coursesController.DeleteCourse)
	courses.Post("/:courseId/sections/:sectionId/chapters/:chapterId/get-upload-url", authMiddleware, coursesController.GetUploadVideoURL)
	courses.Get("/:courseId/sales", authMiddleware, coursesController.GetCourseSales)

	// Transaction routes
	transactionsController := controllers.NewTransactionsController(svc.Transactions, svc.Purchases)
	transactions := app.Group("/transactions", authMiddleware)
	transactions.Get("/", transactionsController.ListTransactions)
	transactions.Post("/", purchaseLimiter, transactionsController.CreateTransaction)
	transactions.Post("/stripe/payment-intent", purchaseLimiter, transactionsController.CreateStripePaymentIntent)

	// Progress routes
	progressController := controllers.NewProgressController(svc.Progress)
	progress := app.Group("/users/course-progress")
	progress.Get("/:userId/enrolled-courses", authMiddleware, selfMiddleware, progressController.GetEnrolledCourses)
	progress.Get("/:userId/courses/:courseId", authMiddleware, selfMiddleware, progressController.GetCourseProgress)
	progress.Put("/:userId/courses/:courseId", authMiddleware, selfMiddleware, progressController.UpdateCourseProgress)

	// User routes
	userController := controllers.NewUserController(svc.Users)
	app.Put("/users/clerk/:userId", authMiddleware, selfMiddleware, userController.UpdateUser)
}
