package DocDB

import (
	"github.com/nickyhof/DocDB/pool"
	"github.com/nickyhof/DocDB/ps"
)

type Instance struct {
	Store *ps.Store
	Pool  *pool.Pool
}

func Open(store *ps.Store) *Instance {
	return &Instance{
		Store: store,
		Pool:  pool.New(store),
	}
}
