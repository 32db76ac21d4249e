// Package bootstrap runs the service lifecycle.
//
// Infrastructure components (database, storage, telemetry, HTTP server) are
// registered up front and started in order. Configure callbacks then build
// the domain layer on top of the started infrastructure. Run blocks until
// SIGINT or SIGTERM and stops everything in reverse order; RunTask does the
// same around a finite task such as a migration.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(database.NewComponent(cfg.Database, app.Logger))
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    // wire services and routes
//	    return nil
//	})
//	err = app.Run(ctx)
package bootstrap
