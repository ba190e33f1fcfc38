package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnsupportedGormEngine error if config db.gormengine is not mysql, postgres or sqlite.
	ErrUnsupportedGormEngine = errors.New("toml config db.gormengine is not supported")

	// ErrBillingSecretKeyEmpty error if billing is enabled without provider secret key.
	ErrBillingSecretKeyEmpty = errors.New("toml config billing.secretkey can not be empty")

	// ErrBillingWebhookSecretEmpty error if billing is enabled without webhook signing secret.
	ErrBillingWebhookSecretEmpty = errors.New("toml config billing.webhooksecret can not be empty")

	// ErrBillingRedirectURLEmpty error if billing is enabled without checkout redirect urls.
	ErrBillingRedirectURLEmpty = errors.New("toml config billing.successurl and billing.cancelurl are required")

	// ErrNilConfig error if no config was handed to a component that needs one.
	ErrNilConfig = errors.New("config is nil")
)
