// Package jobs runs scheduled background work against a persistence unit.
//
// Jobs are driven by github.com/robfig/cron/v3 with a seconds field. Every
// tick runs in a fresh work scope inside unitofwork.Transactional, so a tick
// owns exactly one session and one transaction, and both are released before
// the next tick starts.
//
// # Usage
//
//	ping := jobs.NewWorkJob("connectivity", "*/30 * * * * *", manager,
//		func(ctx context.Context, s ports.Session) error {
//			return s.Ping(ctx)
//		}, logger)
//
//	jobManager := jobs.NewJobManager(logger, ping)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
//   - Task errors roll the tick's transaction back and are logged
//   - Errors listed with WithIgnoredErrors commit the transaction and are not logged
//   - Failed job starts stop any already running jobs
package jobs
