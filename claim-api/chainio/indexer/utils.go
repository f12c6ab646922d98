package indexer

import (
	"go.uber.org/zap"
)

func Go(f func()) {
	go func(f func()) {
		defer func() {
			if e := recover(); e != nil {
				zap.L().DPanic("panic recover", zap.Any("Panic", e))
			}
		}()
		f()
	}(f)
}
