package service_test

import (
	lib "net/http"
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/compute/service"
)

func TestWsgiServiceStartStop(t *testing.T) {
	assert := tdd.New(t)
	ws := service.NewWsgiService(nil)

	handler := lib.HandlerFunc(func(w lib.ResponseWriter, r *lib.Request) {
		w.WriteHeader(lib.StatusOK)
	})
	err := ws.Start(service.WsgiApp{
		Config:  service.WsgiAppConfig{Name: "api", Listen: "127.0.0.1", Port: 18181},
		Handler: handler,
	})
	assert.Nil(err)

	// give the listener goroutine a moment to bind before tearing down.
	time.Sleep(20 * time.Millisecond)
	assert.Nil(ws.Stop())
	assert.Nil(ws.Wait())
}

func TestWsgiServiceStartTwiceFails(t *testing.T) {
	assert := tdd.New(t)
	ws := service.NewWsgiService(nil)
	handler := lib.HandlerFunc(func(w lib.ResponseWriter, r *lib.Request) {})

	assert.Nil(ws.Start(service.WsgiApp{
		Config:  service.WsgiAppConfig{Name: "api", Listen: "127.0.0.1", Port: 18182},
		Handler: handler,
	}))
	defer func() { _ = ws.Stop() }()

	assert.NotNil(ws.Start(service.WsgiApp{
		Config:  service.WsgiAppConfig{Name: "api", Listen: "127.0.0.1", Port: 18183},
		Handler: handler,
	}))
}
