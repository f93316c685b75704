// Package server is the HTTP front end of the image proxy.
//
// # Routes
//
//	GET /image/:spec/:url   transformed image
//	GET /healthz            liveness and cache counters
//
// :spec is a token produced by spec.Encode. :url is the source image URL,
// percent-encoded as one path segment (url.PathEscape). Unencoded slashes in
// the source are tolerated, but a literal "?" would start the proxy's own
// query string and must be escaped. The optional query parameter format
// selects jpeg, png or gif output; the default comes from configuration.
//
// # Status Codes
//
// Failures are returned as JSON {"error": category, "message": text}:
//
//	spec_decode   400
//	transform     400
//	fetch         502
//	image_decode  422
//	encode        500
//
// # Usage
//
//	srv := server.New(svc, server.WithAddr(":3000"))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("server failed")
//	}
//
// Run returns after ctx is cancelled and in-flight requests have drained.
package server
