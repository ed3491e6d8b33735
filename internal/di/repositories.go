package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-constraints/internal/modules/historical"
)

// InitializeRepositories creates repositories over the opened databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	container.HistoryRepo = historical.NewRepository(container.HistoryDB.Conn(), log)
	return nil
}
