// Package server manages the HTTP server lifecycle with graceful shutdown.
//
// The caller owns signal handling: Run serves until its context is
// cancelled, drains in-flight requests and then releases external
// resources through the registered shutdown hooks.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := server.New(app,
//		server.WithHost(":8080"),
//		server.WithShutdownFunc("tracer", tp.Shutdown),
//		server.WithShutdownFunc("airtable queue", func(context.Context) error {
//			queue.Close()
//			return nil
//		}),
//	)
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
