// Package config loads wayfinder.json.
//
// The document lives next to the application, or in S3 when the CLI is
// given --config s3://bucket/key.
//
// # Configuration File Structure
//
//	{
//	  "basepath": "/",
//	  "initial": "/",
//	  "routes": [
//	    {"path": "/", "name": "home"},
//	    {"path": "/users/:id", "name": "user"},
//	    {"path": "/files/*path", "name": "files"},
//	    {"path": "/profile", "redirect": "/users/me"}
//	  ],
//	  "notFound": "not-found",
//	  "scheduler": "idle",
//	  "metrics": {"namespace": "wayfinder", "enabled": true},
//	  "server": {"addr": ":7070"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    errors.Print(os.Stderr, err)
//	    os.Exit(1)
//	}
//	r, err := router.New(cfg.RouteTable(handlerFor))
package config
