package http

import (
	"github.com/samirrijal/mashup/internal/adapters/postgres"
	"github.com/samirrijal/mashup/internal/core/usecases"
)

// LookupFeed streams published lookup events; natsadapter.Subscriber implements it.
type LookupFeed interface {
	SubscribeLookups(kind string, handler func(data []byte)) (func(), error)
}

// BrokerStatus reports broker connectivity for readiness checks.
type BrokerStatus interface {
	IsConnected() bool
}

// BreakerState reports an outbound circuit breaker state ("closed", "open", "half-open").
type BreakerState interface {
	State() string
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places   *usecases.PlaceService
	Articles *usecases.ArticleService

	// APIKey is embedded in the index page; empty means misconfigured.
	APIKey    string
	Debug     bool
	StaticDir string

	Feed   LookupFeed   // optional
	Broker BrokerStatus // optional
	News   BreakerState // optional, readiness only
	DB     *postgres.DB // optional, readiness only
}
