package services

import (
	"context"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type CourseSales struct {
	CourseID     string               `json:"courseId"`
	Enrollments  int                  `json:"enrollments"`
	Learners     int                  `json:"learners"`
	Transactions int                  `json:"transactions"`
	Revenue      int64                `json:"revenue"`
	Recent       []models.Transaction `json:"recentTransactions"`
}

const recentSalesLimit = 10

// SalesService summarizes purchases of a course for its teacher.
type SalesService struct {
	courses      repository.CourseRepo
	transactions repository.TransactionRepo
}

func NewSalesService(courses repository.CourseRepo, transactions repository.TransactionRepo) *SalesService {
	return &SalesService{courses: courses, transactions: transactions}
}

func (s *SalesService) CourseSales(ctx context.Context, course *models.Course) (*CourseSales, error) {
	dbc := repository.Ctx(ctx)
	enrollments, err := s.courses.ListEnrollments(dbc, course.CourseID)
	if err != nil {
		return nil, utils.NewInternalError("Error retrieving course sales", err)
	}
	txns, err := s.transactions.ListByCourse(dbc, course.CourseID)
	if err != nil {
		return nil, utils.NewInternalError("Error retrieving course sales", err)
	}

	learners := make(map[string]struct{}, len(enrollments))
	for _, e := range enrollments {
		learners[e.UserID] = struct{}{}
	}
	summary := &CourseSales{
		CourseID:     course.CourseID,
		Enrollments:  len(enrollments),
		Learners:     len(learners),
		Transactions: len(txns),
		Recent:       txns,
	}
	for _, t := range txns {
		summary.Revenue += t.Amount
	}
	if len(summary.Recent) > recentSalesLimit {
		summary.Recent = summary.Recent[:recentSalesLimit]
	}
	return summary, nil
}
