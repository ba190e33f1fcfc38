package config

import (
	"time"

	"github.com/PrepDesk/PrepDesk/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Billing   Billing
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	CookieSecure   bool    // send the session cookie over https only
	CheckAliveURI  string  // load balancer health check path
	Session        Session // session settings
}

// Billing holds the payment provider settings.
type Billing struct {
	Enabled            bool          // enable checkout and webhook routes
	APIURL             string        // provider api base url
	SecretKey          string        // provider api secret key
	WebhookSecret      string        // shared secret for webhook signatures
	WebhookTolerance   time.Duration // max age of a signed webhook timestamp
	SuccessURL         string        // redirect after successful checkout
	CancelURL          string        // redirect after aborted checkout
	OptimisticCheckout bool          // mark subscriptions ACTIVE before the provider confirms
	RequestTimeout     time.Duration // timeout of provider api calls
}

// Seed holds the first administrator created on an empty database.
type Seed struct {
	AdminUsername string // login name of the first administrator
	AdminEmail    string // email address of the first administrator
	AdminPassword string // initial password, generated and logged once when empty
}
