// Package redis connects the billing service to Redis, which backs the
// low-latency usage counter store. Connect retries until the server is
// ready, and Healthcheck plugs into the readiness probe.
package redis
