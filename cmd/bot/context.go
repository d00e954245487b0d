package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	tele "gopkg.in/telebot.v3"
)

// handleFromContext pulls a connection handle the middleware attached to the
// update.
func handleFromContext[T any](c tele.Context, key string) (T, error) {
	var zero T
	v := c.Get(key)
	if v == nil {
		return zero, fmt.Errorf("%s not attached", key)
	}

	h, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s has unexpected type %T", key, v)
	}

	return h, nil
}

func getContextPostgres(c tele.Context) (*bun.DB, error) {
	return handleFromContext[*bun.DB](c, contextPostgres)
}

func getContextRedisCache(c tele.Context) (redis.UniversalClient, error) {
	return handleFromContext[redis.UniversalClient](c, contextRedisCache)
}
