package blockprocessor

import (
	"github.com/shardledger/shardd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PROC")
