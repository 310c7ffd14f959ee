package repository

import "studyplanner-backend/internal/progress"

var (
	_ progress.UnitOfWork  = (*Queries)(nil)
	_ progress.StatsSource = (*Queries)(nil)
)
