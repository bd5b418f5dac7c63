package main

import (
	"context"

	userapp "github.com/oksasatya/go-ddd-user-service/internal/application"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/apperror"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
)

var demoUsers = []entity.NewUser{
	{Name: "demo user", Email: "demo@example.com", Age: 30},
	{Name: "jane roe", Email: "jane.roe@example.com", Age: 27},
	{Name: "john doe", Email: "john.doe@example.com", Age: 41},
}

type seedResult struct {
	Created int
	Skipped int
}

// seedUsers goes through the service so the usual uniqueness rules and side
// effects apply. Conflicts count as already seeded.
func seedUsers(ctx context.Context, svc *userapp.Service, users []entity.NewUser) (seedResult, error) {
	var res seedResult
	for _, in := range users {
		_, err := svc.Create(ctx, in)
		switch {
		case err == nil:
			res.Created++
		case apperror.IsKind(err, apperror.KindConflict):
			res.Skipped++
		default:
			return res, err
		}
	}
	return res, nil
}
