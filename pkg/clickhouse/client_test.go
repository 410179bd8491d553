package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	o := options(ClientConfig{
		Host: "ch", Port: 9000, Database: "agri", User: "default", Password: "pw",
		MaxOpenConns: 4, MaxIdleConns: 2, DialTimeout: 5 * time.Second, MaxExecTime: time.Minute,
	})
	assert.Equal(t, []string{"ch:9000"}, o.Addr)
	assert.Equal(t, ch.Auth{Database: "agri", Username: "default", Password: "pw"}, o.Auth)
	assert.Equal(t, ch.Native, o.Protocol)
	assert.Equal(t, 4, o.MaxOpenConns)
	assert.Equal(t, 5*time.Second, o.DialTimeout)
	assert.Equal(t, 60, o.Settings["max_execution_time"])

	o = options(ClientConfig{Host: "::1", Port: 8123, UseHTTP: true})
	assert.Equal(t, []string{"[::1]:8123"}, o.Addr)
	assert.Equal(t, ch.HTTP, o.Protocol)
	assert.Nil(t, o.Settings)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(WithHost(""))
	assert.Error(t, err)
}
