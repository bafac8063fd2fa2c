package services

import (
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"

	"gorm.io/gorm"
)

// Deps are the clients built once at startup. Any of the optional clients
// may be nil; the operations that need them then fail with an upstream error.
type Deps struct {
	DB             *gorm.DB
	Payments       PaymentGateway
	VerifyPayments bool
	Storage        UploadSigner
	Cache          CourseCache
	Identity       MetadataUpdater
}

type Services struct {
	Courses      *CourseService
	Purchases    *PurchaseService
	Progress     *ProgressService
	Transactions *TransactionService
	Sales        *SalesService
	Users        *UserService
	Reconciler   *Reconciler
}

func New(deps Deps, log *utils.Logger) *Services {
	courses := repository.NewCourseRepo(deps.DB)
	transactions := repository.NewTransactionRepo(deps.DB)
	progress := repository.NewProgressRepo(deps.DB)

	purchases := NewPurchaseService(PurchaseDeps{
		DB:             deps.DB,
		Courses:        courses,
		Transactions:   transactions,
		Progress:       progress,
		Payments:       deps.Payments,
		VerifyPayments: deps.VerifyPayments,
		Cache:          deps.Cache,
	}, log)

	return &Services{
		Courses:      NewCourseService(courses, deps.Cache, deps.Storage, log),
		Purchases:    purchases,
		Progress:     NewProgressService(progress, courses, log),
		Transactions: NewTransactionService(transactions, deps.Payments, log),
		Sales:        NewSalesService(courses, transactions),
		Users:        NewUserService(deps.Identity, log),
		Reconciler:   NewReconciler(transactions, purchases, log),
	}
}
