package actuate

import (
	"time"

	convCtx "github.com/sofmon/actuator/lib/ctx"
	convDB "github.com/sofmon/actuator/lib/db"
	"github.com/sofmon/actuator/lib/storage"
)

const indicatorTimeout = 5 * time.Second

// DBIndicator pings db.
func DBIndicator(db *convDB.DB) Indicator {
	return IndicatorFunc(func(ctx convCtx.Context) Health {

		pingCtx, cancel := ctx.WithTimeout(indicatorTimeout)
		defer cancel()

		err := db.PingContext(pingCtx)
		if err != nil {
			return Down(err).WithDetail("database", string(db.Engine))
		}

		return Up().
			WithDetail("database", string(db.Engine)).
			WithDetail("open_connections", db.Stats().OpenConnections)
	})
}

// StorageIndicator checks that the storage provider answers an existence
// check.
func StorageIndicator(s *storage.Storage) Indicator {
	return IndicatorFunc(func(ctx convCtx.Context) Health {

		checkCtx, cancel := ctx.WithTimeout(indicatorTimeout)
		defer cancel()

		_, err := s.Exists(checkCtx, ".health")
		if err != nil {
			return Down(err).WithDetail("provider", s.Provider().Name())
		}

		return Up().WithDetail("provider", s.Provider().Name())
	})
}
