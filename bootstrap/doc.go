// Package bootstrap wires a regkit service together: configuration, logging,
// observability, infrastructure components, and the registration lifecycle.
//
// A typical service:
//
//	cfg, err := bootstrap.Load("billing")
//	if err != nil {
//		log.Fatal(err)
//	}
//	app, err := bootstrap.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := app.Run(ctx, serve); err != nil {
//		log.Fatal(err)
//	}
package bootstrap
