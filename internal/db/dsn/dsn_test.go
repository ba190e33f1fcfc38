package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PrepDesk/PrepDesk/internal/config"
)

func TestCreate(t *testing.T) {
	cfg := &config.Config{DB: config.DB{
		User: "prep", Password: "secret", Host: "db", Port: 3306, Name: "prepdesk", Extras: "parseTime=True",
	}}

	assert.Equal(t, "prep:secret@tcp(db:3306)/prepdesk?parseTime=True", Create(cfg))
}

func TestPostgres(t *testing.T) {
	cfg := &config.Config{DB: config.DB{
		User: "prep", Password: "p@ss", Host: "db", Port: 5432, Name: "prepdesk", Extras: "sslmode=disable",
	}}

	assert.Equal(t, "postgres://prep:p%40ss@db:5432/prepdesk?sslmode=disable", Postgres(cfg))
}
